package compose

import (
	"strings"

	"textinput/internal/key"
)

// DateChars are the characters a date field accepts.
const DateChars = "0123456789/-."

// DateFilter restricts input to date characters.
type DateFilter struct{}

// Accepts reports whether ev may be applied to a date field. Events that
// insert nothing, such as navigation and deletion, are always accepted.
func (DateFilter) Accepts(ev key.Event) bool {
	r := resolveRune(ev)
	if r == 0 {
		return true
	}
	return !ev.Accent && strings.ContainsRune(DateChars, r)
}

// Filter removes every rune that is not a date character, e.g. from pasted
// text.
func (DateFilter) Filter(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(DateChars, r) {
			return r
		}
		return -1
	}, s)
}
