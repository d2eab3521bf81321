package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlacesCursorAtEnd(t *testing.T) {
	b := New("héllo")
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, Cursor(5), b.Selection())
	assert.Equal(t, 'é', b.RuneAt(1))
	assert.Equal(t, rune(0), b.RuneAt(-1))
	assert.Equal(t, rune(0), b.RuneAt(5))
}

func TestRunesIsCappedView(t *testing.T) {
	b := New("abc")
	r := b.Runes()
	assert.Equal(t, []rune("abc"), r)
	assert.Equal(t, len(r), cap(r))

	_ = append(r, 'z')
	b.Insert(3, "d")
	assert.Equal(t, "abcd", b.String())
	assert.Equal(t, []rune("abc"), r)
}

func TestSliceClamps(t *testing.T) {
	b := New("hello")
	assert.Equal(t, "ell", b.Slice(1, 4))
	assert.Equal(t, "hello", b.Slice(-3, 99))
	assert.Equal(t, "", b.Slice(4, 2))
}

func TestReplaceMovesCursor(t *testing.T) {
	b := New("abc")
	b.SetCursor(1)
	b.Insert(1, "XY")
	assert.Equal(t, "aXYbc", b.String())
	assert.Equal(t, Cursor(3), b.Selection(), "cursor is a point and follows the insertion")

	b.Delete(0, 2)
	assert.Equal(t, "Ybc", b.String())
	assert.Equal(t, Cursor(1), b.Selection())
}

func TestReplaceOrdersAndClampsRange(t *testing.T) {
	b := New("abcdef")
	b.Replace(4, 2, "-")
	assert.Equal(t, "ab-ef", b.String())

	b.Replace(-5, 1, "")
	assert.Equal(t, "b-ef", b.String())

	b.Replace(3, 100, "!")
	assert.Equal(t, "b-e!", b.String())
}

func TestGravityOnInsertion(t *testing.T) {
	tests := []struct {
		name      string
		flags     Flags
		wantStart int
		wantEnd   int
	}{
		{"mark-mark stays", MarkMark, 2, 2},
		{"point-point pushed", PointPoint, 3, 3},
		{"inclusive grows", InclusiveInclusive, 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("abcd")
			b.Mark(OldSelStart, 2, 2, tt.flags)
			b.Insert(2, "x")
			a, ok := b.Get(OldSelStart)
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, a.Start)
			assert.Equal(t, tt.wantEnd, a.End)
		})
	}
}

func TestExclusiveDoesNotGrowAtEdges(t *testing.T) {
	b := New("abcd")
	b.Mark(LastTyped, 1, 3, ExclusiveExclusive)

	b.Insert(3, "x")
	b.Insert(1, "y")
	a, ok := b.Get(LastTyped)
	require.True(t, ok)
	assert.Equal(t, 2, a.Start)
	assert.Equal(t, 4, a.End)
	assert.Equal(t, "bc", b.Slice(a.Start, a.End))
}

func TestExclusiveKeptWhenExactlyReplaced(t *testing.T) {
	b := New("teh ")
	b.Set(Annotation{Kind: Replaced, Start: 0, End: 3, Flags: ExclusiveExclusive, Text: "teh"})
	b.Replace(0, 3, "there")

	a, ok := b.Get(Replaced)
	require.True(t, ok)
	assert.Equal(t, 0, a.Start)
	assert.Equal(t, 5, a.End)
	assert.Equal(t, "teh", a.Text)
}

func TestExclusiveDroppedWhenCollapsed(t *testing.T) {
	b := New("abc")
	b.Mark(LastTyped, 2, 3, ExclusiveExclusive)
	b.Delete(2, 3)
	assert.False(t, b.Has(LastTyped))
}

func TestMarkMarkSurvivesDeletionAtIt(t *testing.T) {
	b := New("Tx")
	b.Set(Annotation{Kind: Capped, Start: 0, End: 0, Flags: MarkMark, Rune: 't'})
	b.Delete(0, 1)
	a, ok := b.Get(Capped)
	require.True(t, ok)
	assert.Equal(t, 0, a.End)
	assert.Equal(t, 't', a.Rune)
}

func TestSetEvictsSameKind(t *testing.T) {
	b := New("one two")
	b.Set(Annotation{Kind: Replaced, Start: 0, End: 3, Flags: ExclusiveExclusive, Text: "oen"})
	b.Set(Annotation{Kind: Replaced, Start: 4, End: 7, Flags: ExclusiveExclusive, Text: "tow"})

	anns := b.Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, "tow", anns[0].Text)
}

func TestSetClampsAndOrders(t *testing.T) {
	b := New("abc")
	b.Mark(Active, 10, -2, ExclusiveExclusive)
	a, ok := b.Get(Active)
	require.True(t, ok)
	assert.Equal(t, 0, a.Start)
	assert.Equal(t, 3, a.End)
}

func TestOverlapping(t *testing.T) {
	b := New("the cat")
	b.Mark(Replaced, 0, 3, ExclusiveExclusive)

	_, ok := b.Overlapping(Replaced, 2, 4)
	assert.True(t, ok)
	_, ok = b.Overlapping(Replaced, 3, 4)
	assert.False(t, ok, "touching non-empty ranges do not overlap")
	_, ok = b.Overlapping(Replaced, 3, 3)
	assert.True(t, ok, "an empty query at the edge overlaps")
	_, ok = b.Overlapping(Replaced, 5, 6)
	assert.False(t, ok)
}

func TestSpanStartEndAbsent(t *testing.T) {
	b := New("")
	assert.Equal(t, -1, b.SpanStart(Active))
	assert.Equal(t, -1, b.SpanEnd(Active))
	b.Mark(Active, 0, 0, MarkMark)
	assert.Equal(t, 0, b.SpanEnd(Active))
	b.Remove(Active)
	assert.False(t, b.Has(Active))
}

func TestClearAnnotations(t *testing.T) {
	b := New("abc")
	b.Mark(Active, 0, 1, ExclusiveExclusive)
	b.Mark(LastTyped, 1, 2, ExclusiveExclusive)
	b.ClearAnnotations()
	assert.Empty(t, b.Annotations())
}

func TestSelectionHelpers(t *testing.T) {
	s := Selection{Start: 5, End: 2}
	assert.Equal(t, 2, s.Min())
	assert.Equal(t, 5, s.Max())
	assert.Equal(t, Selection{Start: 2, End: 5}, s.Ordered())
	assert.False(t, s.Collapsed())
	assert.True(t, s.Valid())
	assert.False(t, Selection{Start: -1, End: 0}.Valid())
}

func TestAnnotationString(t *testing.T) {
	assert.Equal(t, `Capped[0,1)='t'`, Annotation{Kind: Capped, Start: 0, End: 1, Rune: 't'}.String())
	assert.Equal(t, `Replaced[0,3)="teh"`, Annotation{Kind: Replaced, Start: 0, End: 3, Text: "teh"}.String())
	assert.Equal(t, "Active[1,2)", Annotation{Kind: Active, Start: 1, End: 2}.String())
}
