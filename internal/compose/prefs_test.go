package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"textinput/internal/key"
	"textinput/internal/logging"
	"textinput/internal/settings"
	"textinput/internal/sysprop"
)

func TestLoadPrefs(t *testing.T) {
	ctx := context.Background()
	props := sysprop.NewMemStore()
	r := settings.NewResolver(settings.NewMemProvider(props), props, settings.ResolverOptions{Logger: logging.Discard()})

	assert.Equal(t, DefaultPrefs, LoadPrefs(ctx, r), "missing values count as enabled")

	assert.True(t, r.System.PutInt(ctx, settings.TextAutoCaps, 0))
	assert.True(t, r.System.PutInt(ctx, settings.TextAutoPunctuate, 0))
	p := LoadPrefs(ctx, r)
	assert.False(t, p.Has(PrefAutoCap))
	assert.False(t, p.Has(PrefAutoPeriod))
	assert.True(t, p.Has(PrefAutoText))
	assert.True(t, p.Has(PrefShowPassword))
}

func TestPrefsString(t *testing.T) {
	assert.Equal(t, "none", Prefs(0).String())
	assert.Equal(t, "autocap|autotext|autoperiod|showpassword", DefaultPrefs.String())
	assert.Equal(t, "autotext", PrefAutoText.String())
}

func TestDateFilter(t *testing.T) {
	var f DateFilter
	assert.True(t, f.Accepts(key.NewRuneEvent('7')))
	assert.True(t, f.Accepts(key.NewRuneEvent('/')))
	assert.False(t, f.Accepts(key.NewRuneEvent('a')))
	assert.False(t, f.Accepts(key.NewCodeEvent(key.CodeSpace, key.ModNone)))
	assert.True(t, f.Accepts(key.NewCodeEvent(key.CodeDel, key.ModNone)))
	assert.Equal(t, "2024-01-02", f.Filter("Jan 2024-01-02!"))
}
