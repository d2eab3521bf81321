package text

// Selection is a pair of rune offsets into a Buffer.
// Start may be greater than End when the selection was made backwards.
type Selection struct {
	Start int
	End   int
}

// Cursor returns a collapsed selection at pos.
func Cursor(pos int) Selection {
	return Selection{Start: pos, End: pos}
}

// Collapsed reports whether the selection is a plain cursor.
func (s Selection) Collapsed() bool {
	return s.Start == s.End
}

// Min returns the smaller bound.
func (s Selection) Min() int {
	if s.Start < s.End {
		return s.Start
	}
	return s.End
}

// Max returns the larger bound.
func (s Selection) Max() int {
	if s.Start > s.End {
		return s.Start
	}
	return s.End
}

// Valid reports whether both bounds are non-negative.
func (s Selection) Valid() bool {
	return s.Start >= 0 && s.End >= 0
}

// Ordered returns the selection with Start <= End.
func (s Selection) Ordered() Selection {
	return Selection{Start: s.Min(), End: s.Max()}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
