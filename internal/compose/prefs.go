package compose

import (
	"context"
	"strings"

	"textinput/internal/settings"
)

// Prefs are the user's text preferences.
type Prefs uint32

const (
	PrefAutoCap Prefs = 1 << iota
	PrefAutoText
	PrefAutoPeriod
	PrefShowPassword
)

// DefaultPrefs applies when the settings store has no values.
const DefaultPrefs = PrefAutoCap | PrefAutoText | PrefAutoPeriod | PrefShowPassword

// Has reports whether all bits of f are set.
func (p Prefs) Has(f Prefs) bool {
	return p&f == f
}

func (p Prefs) String() string {
	if p == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		bit  Prefs
		name string
	}{
		{PrefAutoCap, "autocap"},
		{PrefAutoText, "autotext"},
		{PrefAutoPeriod, "autoperiod"},
		{PrefShowPassword, "showpassword"},
	} {
		if p.Has(f.bit) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// LoadPrefs reads the text preferences from the system table. Missing or
// unreadable values count as enabled.
func LoadPrefs(ctx context.Context, r *settings.Resolver) Prefs {
	var p Prefs
	read := func(name string, bit Prefs) {
		if r.System.GetInt(ctx, name, 1) > 0 {
			p |= bit
		}
	}
	read(settings.TextAutoCaps, PrefAutoCap)
	read(settings.TextAutoReplace, PrefAutoText)
	read(settings.TextAutoPunctuate, PrefAutoPeriod)
	read(settings.TextShowPassword, PrefShowPassword)
	return p
}

// PrefKeys lists the setting names LoadPrefs depends on, for callers that
// reload preferences when one of them changes.
var PrefKeys = []string{
	settings.TextAutoCaps,
	settings.TextAutoReplace,
	settings.TextAutoPunctuate,
	settings.TextShowPassword,
}
