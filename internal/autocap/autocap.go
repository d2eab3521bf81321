// Package autocap decides whether a character typed at a given offset
// should be capitalized automatically.
package autocap

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects the capitalization policy of a text field.
type Mode uint8

const (
	None Mode = iota
	Sentences
	Words
	Characters
)

var modeNames = map[Mode]string{
	None:       "none",
	Sentences:  "sentences",
	Words:      "words",
	Characters: "characters",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode parses a mode name as written in configuration files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return None, nil
	case "sentences", "sentence":
		return Sentences, nil
	case "words", "word":
		return Words, nil
	case "characters", "chars", "all":
		return Characters, nil
	}
	return None, fmt.Errorf("autocap: unknown mode %q", s)
}

// ShouldCap reports whether a lowercase letter typed at off in text should
// be capitalized under mode. Offsets are in runes.
func ShouldCap(mode Mode, text []rune, off int) bool {
	switch mode {
	case None:
		return false
	case Characters:
		return true
	}
	if off < 0 {
		off = 0
	}
	if off > len(text) {
		off = len(text)
	}

	// Opening quotes and punctuation right before the cursor belong to the
	// word being typed.
	i := off
	for i > 0 {
		c := text[i-1]
		if c != '"' && c != '\'' && !unicode.Is(unicode.Ps, c) {
			break
		}
		i--
	}

	j := i
	for j > 0 && (text[j-1] == ' ' || text[j-1] == '\t') {
		j--
	}
	if j == 0 || text[j-1] == '\n' {
		return true
	}

	if mode == Words {
		return i != j
	}

	// Sentence mode needs whitespace after the terminator.
	if i == j {
		return false
	}

	for j > 0 {
		c := text[j-1]
		if c != '"' && c != '\'' && !unicode.Is(unicode.Pe, c) {
			break
		}
		j--
	}
	if j == 0 {
		return false
	}

	switch text[j-1] {
	case '?', '!':
		return true
	case '.':
		return !isAbbreviation(text, j-1)
	}
	return false
}

// ShouldCapString is ShouldCap for a string with a rune offset.
func ShouldCapString(mode Mode, s string, off int) bool {
	return ShouldCap(mode, []rune(s), off)
}

// isAbbreviation reports whether the period at dot ends a dotted
// abbreviation such as "e.g.", i.e. the word before it has another period.
func isAbbreviation(text []rune, dot int) bool {
	for k := dot - 1; k >= 0; k-- {
		c := text[k]
		if c == '.' {
			return true
		}
		if !unicode.IsLetter(c) {
			break
		}
	}
	return false
}
