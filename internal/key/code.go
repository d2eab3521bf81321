package key

import "strconv"

// Code is the raw key code reported by the keyboard driver.
type Code uint16

const (
	CodeUnknown Code = iota

	// Editing keys
	CodeDel        // backspace
	CodeForwardDel // delete
	CodeEnter
	CodeTab
	CodeSpace

	// Navigation keys
	CodeLeft
	CodeRight
	CodeUp
	CodeDown
	CodeHome
	CodeEnd

	// Modifier keys
	CodeShiftLeft
	CodeShiftRight
	CodeAltLeft
	CodeAltRight
	CodeCtrlLeft
	CodeCtrlRight
	CodeSym

	// CodeChar is any key whose meaning lies entirely in its resolved
	// code point (letters, digits, punctuation).
	CodeChar
)

var codeNames = map[Code]string{
	CodeUnknown:    "Unknown",
	CodeDel:        "Del",
	CodeForwardDel: "ForwardDel",
	CodeEnter:      "Enter",
	CodeTab:        "Tab",
	CodeSpace:      "Space",
	CodeLeft:       "Left",
	CodeRight:      "Right",
	CodeUp:         "Up",
	CodeDown:       "Down",
	CodeHome:       "Home",
	CodeEnd:        "End",
	CodeShiftLeft:  "ShiftLeft",
	CodeShiftRight: "ShiftRight",
	CodeAltLeft:    "AltLeft",
	CodeAltRight:   "AltRight",
	CodeCtrlLeft:   "CtrlLeft",
	CodeCtrlRight:  "CtrlRight",
	CodeSym:        "Sym",
	CodeChar:       "Char",
}

// String returns a human-readable name for the key code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// IsModifier reports whether c is a modifier key.
func (c Code) IsModifier() bool {
	switch c {
	case CodeShiftLeft, CodeShiftRight, CodeAltLeft, CodeAltRight,
		CodeCtrlLeft, CodeCtrlRight, CodeSym:
		return true
	}
	return false
}

// IsNavigation reports whether c moves the cursor.
func (c Code) IsNavigation() bool {
	switch c {
	case CodeLeft, CodeRight, CodeUp, CodeDown, CodeHome, CodeEnd:
		return true
	}
	return false
}
