package key

import (
	"fmt"
	"strings"
)

// Reserved code points. They live in the private use area so they can never
// collide with a character a key map would produce.
const (
	HexInput          rune = 0xEF00
	PickerDialogInput rune = 0xEF01
	DotWWWInput       rune = 0xEF02
)

// Event is a single key press.
type Event struct {
	// Code is the raw key code.
	Code Code

	// Rune is the code point resolved by the key map, or 0 for keys that
	// do not produce a character.
	Rune rune

	// Repeat is the auto-repeat count; 0 for the initial press.
	Repeat int

	// Accent marks Rune as a combining accent awaiting a base character.
	Accent bool

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates an event for a character key.
func NewRuneEvent(r rune) Event {
	return Event{Code: CodeChar, Rune: r}
}

// NewCodeEvent creates an event for a key without a resolved character.
func NewCodeEvent(c Code, mods Modifier) Event {
	return Event{Code: c, Modifiers: mods}
}

// NewAccentEvent creates a dead-key event for the given spacing accent.
func NewAccentEvent(accent rune) Event {
	return Event{Code: CodeChar, Rune: accent, Accent: true}
}

// WithRepeat returns a copy of the event with the given repeat count.
func (e Event) WithRepeat(n int) Event {
	e.Repeat = n
	return e
}

// WithModifiers returns a copy of the event with the given modifiers.
func (e Event) WithModifiers(mods Modifier) Event {
	e.Modifiers = mods
	return e
}

// HasNoModifiers reports whether no modifier keys are held.
func (e Event) HasNoModifiers() bool {
	return e.Modifiers == ModNone
}

// HasOnly reports whether exactly the given modifiers are held.
func (e Event) HasOnly(mods Modifier) bool {
	return e.Modifiers == mods
}

// IsRepeat reports whether the event was produced by auto-repeat.
func (e Event) IsRepeat() bool {
	return e.Repeat > 0
}

// IsSentinel reports whether the resolved code point is a reserved action.
func (e Event) IsSentinel() bool {
	switch e.Rune {
	case HexInput, PickerDialogInput, DotWWWInput:
		return true
	}
	return false
}

// String returns a compact representation such as "Ctrl-a", "Del" or "´(dead)".
func (e Event) String() string {
	var sb strings.Builder
	if mods := e.Modifiers.String(); mods != "" {
		sb.WriteString(strings.ReplaceAll(mods, "+", "-"))
		sb.WriteByte('-')
	}
	switch {
	case e.Rune == HexInput:
		sb.WriteString("<hex>")
	case e.Rune == PickerDialogInput:
		sb.WriteString("<picker>")
	case e.Rune == DotWWWInput:
		sb.WriteString("<www>")
	case e.Rune != 0:
		sb.WriteRune(e.Rune)
	default:
		sb.WriteString(e.Code.String())
	}
	if e.Accent {
		sb.WriteString("(dead)")
	}
	if e.Repeat > 0 {
		fmt.Fprintf(&sb, "x%d", e.Repeat+1)
	}
	return sb.String()
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Code: %s, Rune: %q, Repeat: %d, Accent: %t, Modifiers: %s}",
		e.Code, e.Rune, e.Repeat, e.Accent, e.Modifiers)
}
