package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRuneEvent(t *testing.T) {
	e := NewRuneEvent('a')
	assert.Equal(t, CodeChar, e.Code)
	assert.Equal(t, 'a', e.Rune)
	assert.True(t, e.HasNoModifiers())
	assert.False(t, e.IsRepeat())
	assert.False(t, e.Accent)
}

func TestNewAccentEvent(t *testing.T) {
	e := NewAccentEvent('´')
	assert.True(t, e.Accent)
	assert.Equal(t, '´', e.Rune)
}

func TestEventModifiers(t *testing.T) {
	e := NewCodeEvent(CodeDel, ModAlt)
	assert.False(t, e.HasNoModifiers())
	assert.True(t, e.HasOnly(ModAlt))
	assert.False(t, e.HasOnly(ModAlt|ModShift))

	e = e.WithModifiers(ModNone)
	assert.True(t, e.HasNoModifiers())
}

func TestEventSentinel(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{HexInput, true},
		{PickerDialogInput, true},
		{DotWWWInput, true},
		{'x', false},
		{0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewRuneEvent(tt.r).IsSentinel(), "rune %U", tt.r)
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{NewRuneEvent('a'), "a"},
		{NewRuneEvent('a').WithModifiers(ModCtrl), "Ctrl-a"},
		{NewCodeEvent(CodeDel, ModNone), "Del"},
		{NewAccentEvent('`'), "`(dead)"},
		{NewRuneEvent('e').WithRepeat(2), "ex3"},
		{NewRuneEvent(HexInput), "<hex>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.event.String())
	}
}

func TestModifierString(t *testing.T) {
	assert.Equal(t, "", ModNone.String())
	assert.Equal(t, "Ctrl+Alt+Shift", (ModShift | ModCtrl | ModAlt).String())
	assert.True(t, ModShift.With(ModAlt).Has(ModAlt))
	assert.False(t, (ModShift | ModAlt).Without(ModAlt).Has(ModAlt))
}

func TestCodeClassification(t *testing.T) {
	assert.True(t, CodeShiftLeft.IsModifier())
	assert.False(t, CodeDel.IsModifier())
	assert.True(t, CodeHome.IsNavigation())
	assert.False(t, CodeChar.IsNavigation())
	assert.Equal(t, "Del", CodeDel.String())
	assert.Equal(t, "Code(999)", Code(999).String())
}
