// Package key defines the key events consumed by the text composer.
//
// An Event carries the raw key Code reported by the keyboard driver, the
// code point the active key map resolved for it (0 for navigation and
// modifier keys), the auto-repeat count, and whether the code point is a
// combining accent (a dead key) that should modify the next character.
//
// A few code points in the private use area are reserved as sentinels that
// never reach the text buffer directly:
//
//	PickerDialogInput  open the symbol picker in insert mode
//	HexInput           reinterpret preceding hex digits as a code point
//	DotWWWInput        type "www." at the start of the text, ".com" elsewhere
package key
