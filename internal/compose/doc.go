// Package compose turns key events into edits of a text.Buffer the way a
// hardware qwerty keyboard is expected to behave: dead-key accents,
// automatic capitalization, autotext correction with backspace undo, the
// double-space period and the held-key character picker.
//
// A Composer is configured once and is stateless between events; all
// transient state lives in the buffer's annotations:
//
//	Active              accent waiting for its base character
//	Capped              last automatic capitalization and the rune it replaced
//	LastTyped           range of the most recent insertion
//	Replaced            autotext output and the original word
//	InhibitReplacement  position where autotext must not fire again
//
// OnKeyEvent never fails. Out-of-range selections are normalized and
// lookups that find nothing leave the typed text alone.
package compose
