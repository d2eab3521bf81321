package text

import "fmt"

// Kind identifies the role of an annotation.
type Kind uint8

const (
	// Active marks a combining accent waiting for its base character.
	Active Kind = iota
	// Capped records an automatic capitalization decision. Its Rune holds
	// the lowercase code point that was capitalized.
	Capped
	// LastTyped covers the most recent insertion.
	LastTyped
	// Replaced covers autotext output. Its Text holds the original word.
	Replaced
	// InhibitReplacement suppresses autotext right after an undo.
	InhibitReplacement
	// OldSelStart remembers the selection start across an insertion.
	OldSelStart

	numKinds
)

var kindNames = [numKinds]string{
	Active:             "Active",
	Capped:             "Capped",
	LastTyped:          "LastTyped",
	Replaced:           "Replaced",
	InhibitReplacement: "InhibitReplacement",
	OldSelStart:        "OldSelStart",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Gravity decides where an endpoint goes when text is inserted at it or the
// text around it is replaced.
type Gravity uint8

const (
	Mark  Gravity = iota // sticks to the preceding text
	Point                // sticks to the following text
)

// Flags holds the gravity of both endpoints.
type Flags struct {
	Start Gravity
	End   Gravity
}

// Common endpoint combinations.
var (
	MarkMark           = Flags{Start: Mark, End: Mark}
	PointPoint         = Flags{Start: Point, End: Point}
	ExclusiveExclusive = Flags{Start: Point, End: Mark}
	InclusiveInclusive = Flags{Start: Mark, End: Point}
)

// Annotation is a tagged range of the buffer.
type Annotation struct {
	Kind  Kind
	Start int
	End   int
	Flags Flags

	// Rune is the payload for Capped.
	Rune rune
	// Text is the payload for Replaced.
	Text string
}

// Len returns the width of the annotated range.
func (a Annotation) Len() int {
	return a.End - a.Start
}

func (a Annotation) String() string {
	switch a.Kind {
	case Capped:
		return fmt.Sprintf("%s[%d,%d)=%q", a.Kind, a.Start, a.End, a.Rune)
	case Replaced:
		return fmt.Sprintf("%s[%d,%d)=%q", a.Kind, a.Start, a.End, a.Text)
	default:
		return fmt.Sprintf("%s[%d,%d)", a.Kind, a.Start, a.End)
	}
}

// moveEndpoint computes where p lands after [st,en) is replaced by n runes.
func moveEndpoint(p, st, en, n int, g Gravity) int {
	switch {
	case p < st:
		return p
	case p > en || (p == en && en > st):
		return p + n - (en - st)
	case g == Mark:
		return st
	default:
		return st + n
	}
}

// overlaps uses span query semantics: ranges that only touch do not
// overlap unless one of them is empty.
func overlaps(s, e, qs, qe int) bool {
	if s > qe || e < qs {
		return false
	}
	if s != e && qs != qe {
		if s == qe || e == qs {
			return false
		}
	}
	return true
}
