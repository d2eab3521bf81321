package autotext

import "unicode"

// IsWordRune reports whether r can be part of a replaceable word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '\''
}

// IsWord reports whether every rune of s is a word rune.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsWordRune(r) {
			return false
		}
	}
	return true
}
