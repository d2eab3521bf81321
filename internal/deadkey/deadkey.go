// Package deadkey composes a spacing accent typed on a dead key with the
// base character that follows it.
package deadkey

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Composer combines a base character with a pending accent. It returns 0
// when the pair has no composed form.
type Composer interface {
	Compose(base, accent rune) rune
}

// ComposerFunc adapts a function to Composer.
type ComposerFunc func(base, accent rune) rune

// Compose calls f(base, accent).
func (f ComposerFunc) Compose(base, accent rune) rune {
	return f(base, accent)
}

// Spacing accents produced by dead keys and the combining mark each one
// stands for.
var combining = map[rune]rune{
	'`':  0x0300, // grave
	'´':  0x0301, // acute
	'\'': 0x0301,
	'^':  0x0302, // circumflex
	'~':  0x0303, // tilde
	'¯':  0x0304, // macron
	'˘':  0x0306, // breve
	'˙':  0x0307, // dot above
	'¨':  0x0308, // diaeresis
	'"':  0x0308,
	'˚':  0x030a, // ring above
	'˝':  0x030b, // double acute
	'ˇ':  0x030c, // caron
	'¸':  0x0327, // cedilla
	'˛':  0x0328, // ogonek
}

// CombiningMark returns the combining mark for a spacing accent. A rune that
// is already a combining mark maps to itself.
func CombiningMark(accent rune) (rune, bool) {
	if m, ok := combining[accent]; ok {
		return m, true
	}
	if unicode.Is(unicode.Mn, accent) {
		return accent, true
	}
	return 0, false
}

// IsAccent reports whether r can be typed on a dead key.
func IsAccent(r rune) bool {
	_, ok := CombiningMark(r)
	return ok
}

type pair struct {
	accent rune
	base   rune
}

// Table is a Composer backed by canonical composition with optional
// per-pair overrides. The zero value is ready to use.
type Table struct {
	overrides map[pair]rune
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add registers an explicit composition, taking precedence over the
// canonical one. Adding 0 disables a pair.
func (t *Table) Add(accent, base, composed rune) {
	if t.overrides == nil {
		t.overrides = make(map[pair]rune)
	}
	t.overrides[pair{accent, base}] = composed
}

// Compose returns the composed character, or 0. Typing the accent itself
// or a space after a dead key yields the accent.
func (t *Table) Compose(base, accent rune) rune {
	if base == ' ' || base == accent {
		return accent
	}
	if t != nil {
		if c, ok := t.overrides[pair{accent, base}]; ok {
			return c
		}
	}
	mark, ok := CombiningMark(accent)
	if !ok {
		return 0
	}
	out := []rune(norm.NFC.String(string([]rune{base, mark})))
	if len(out) != 1 {
		return 0
	}
	return out[0]
}

// Default is the composer used when none is configured.
var Default Composer = NewTable()
