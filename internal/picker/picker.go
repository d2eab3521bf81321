// Package picker holds the symbol sets offered when a key is held down and
// applies the character the user picks.
package picker

import (
	"fmt"

	"textinput/internal/key"
	"textinput/internal/text"
)

// sets maps a base character to the alternatives offered for it.
var sets = map[rune]string{
	'A': "ÀÁÂÄÆÃÅĄĀ",
	'C': "ÇĆČ",
	'D': "Ď",
	'E': "ÈÉÊËĘĚĒ",
	'G': "Ğ",
	'L': "Ł",
	'I': "ÌÍÎÏĪİ",
	'N': "ÑŃŇ",
	'O': "ØŒÕÒÓÔÖŌ",
	'R': "Ř",
	'S': "ŚŠŞ",
	'T': "Ť",
	'U': "ÙÚÛÜŮŪ",
	'Y': "ÝŸ",
	'Z': "ŹŻŽ",
	'a': "àáâäæãåąā",
	'c': "çćč",
	'd': "ď",
	'e': "èéêëęěē",
	'g': "ğ",
	'i': "ìíîïīı",
	'l': "ł",
	'n': "ñńň",
	'o': "øœõòóôöō",
	'r': "ř",
	's': "§ßśšş",
	't': "ť",
	'u': "ùúûüůū",
	'y': "ýÿ",
	'z': "źżž",
	'1': "¹½⅓¼⅛",
	'2': "²⅔",
	'3': "³¾⅜",
	'4': "⁴",
	'5': "⅝",
	'7': "⅞",
	'0': "ⁿ∅",
	'$': "¢£€¥₣₤₱",
	'%': "‰",
	'*': "†‡",
	'-': "–—",
	'+': "±",
	'(': "[{<",
	')': "]}>",
	'!': "¡",
	'"': "“”«»˝",
	'?': "¿",
	',': "‚„",
	'=': "≠≈∞",
	'<': "≤«‹",
	'>': "≥»›",
	'/': "\\",

	key.PickerDialogInput: "…¥•®©±[]{}\\|",
}

// Lookup returns the symbol set for base.
func Lookup(base rune) (string, bool) {
	s, ok := sets[base]
	return s, ok
}

// Request asks the caller to show a picker. In insert mode the chosen
// character is inserted at the cursor; otherwise it replaces the character
// before the cursor, which is the held-down key's own output.
type Request struct {
	Base   rune
	Set    string
	Insert bool
	Count  int
}

// NewRequest builds a request for base, or returns false when no set is
// registered for it.
func NewRequest(base rune, insert bool, count int) (*Request, bool) {
	set, ok := Lookup(base)
	if !ok {
		return nil, false
	}
	return &Request{Base: base, Set: set, Insert: insert, Count: count}, true
}

// Choices returns the set as individual runes.
func (r *Request) Choices() []rune {
	return []rune(r.Set)
}

// Offers reports whether c is one of the request's choices.
func (r *Request) Offers(c rune) bool {
	for _, s := range r.Set {
		if s == c {
			return true
		}
	}
	return false
}

func (r *Request) String() string {
	mode := "replace"
	if r.Insert {
		mode = "insert"
	}
	return fmt.Sprintf("picker(%q, %s, %d choices)", r.Base, mode, len(r.Choices()))
}

// Apply writes the chosen character into buf and leaves the cursor after it.
func Apply(buf *text.Buffer, req *Request, chosen rune) {
	sel := buf.Selection()
	if !sel.Valid() {
		sel = text.Cursor(0)
	}
	sel = sel.Ordered()
	start, end := buf.Clamp(sel.Start), buf.Clamp(sel.End)
	if !req.Insert && start == end && start > 0 {
		start--
	}
	buf.Replace(start, end, string(chosen))
	buf.SetCursor(start + 1)
}
