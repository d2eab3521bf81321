package compose

import (
	"github.com/rivo/uniseg"

	"textinput/internal/key"
	"textinput/internal/text"
)

// defaultKey handles deletion and cursor movement for events that do not
// insert text. Positions move by grapheme cluster so a base character and
// its combining marks, or an emoji sequence, are treated as one.
func (c *Composer) defaultKey(buf *text.Buffer, ev key.Event) Result {
	sel := buf.Selection()
	if !sel.Valid() {
		sel = text.Cursor(0)
	}
	anchor, cursor := buf.Clamp(sel.Start), buf.Clamp(sel.End)
	start, end := min(anchor, cursor), max(anchor, cursor)
	extend := ev.Modifiers.Has(key.ModShift)

	switch ev.Code {
	case key.CodeDel:
		if start != end {
			buf.Delete(start, end)
			buf.SetCursor(start)
			return handled
		}
		if start == 0 {
			return handled
		}
		from := prevBoundary(buf, start)
		if ev.Modifiers.Has(key.ModAlt) {
			from = lineStart(buf, start)
			if from == start {
				from = prevBoundary(buf, start)
			}
		}
		buf.Delete(from, start)
		buf.SetCursor(from)
		return handled

	case key.CodeForwardDel:
		if start != end {
			buf.Delete(start, end)
			buf.SetCursor(start)
			return handled
		}
		if start < buf.Len() {
			buf.Delete(start, nextBoundary(buf, start))
			buf.SetCursor(start)
		}
		return handled

	case key.CodeLeft:
		switch {
		case extend:
			buf.SetSelection(anchor, prevBoundary(buf, cursor))
		case start != end:
			buf.SetCursor(start)
		default:
			buf.SetCursor(prevBoundary(buf, start))
		}
		return handled

	case key.CodeRight:
		switch {
		case extend:
			buf.SetSelection(anchor, nextBoundary(buf, cursor))
		case start != end:
			buf.SetCursor(end)
		default:
			buf.SetCursor(nextBoundary(buf, end))
		}
		return handled

	case key.CodeHome:
		if extend {
			buf.SetSelection(anchor, lineStart(buf, cursor))
		} else {
			buf.SetCursor(lineStart(buf, start))
		}
		return handled

	case key.CodeEnd:
		if extend {
			buf.SetSelection(anchor, lineEnd(buf, cursor))
		} else {
			buf.SetCursor(lineEnd(buf, end))
		}
		return handled
	}
	return unhandled
}

// graphemeBounds returns the rune offsets of the cluster boundaries in the
// line containing pos, starting with the line start.
func graphemeBounds(buf *text.Buffer, pos int) []int {
	ls, le := lineStart(buf, pos), lineEnd(buf, pos)
	bounds := []int{ls}
	off := ls
	g := uniseg.NewGraphemes(buf.Slice(ls, le))
	for g.Next() {
		off += len(g.Runes())
		bounds = append(bounds, off)
	}
	return bounds
}

// prevBoundary returns the cluster boundary before pos. At a line start it
// steps over the newline.
func prevBoundary(buf *text.Buffer, pos int) int {
	if pos <= 0 {
		return 0
	}
	if buf.RuneAt(pos-1) == '\n' {
		return pos - 1
	}
	prev := lineStart(buf, pos)
	for _, b := range graphemeBounds(buf, pos) {
		if b >= pos {
			break
		}
		prev = b
	}
	return prev
}

// nextBoundary returns the cluster boundary after pos.
func nextBoundary(buf *text.Buffer, pos int) int {
	if pos >= buf.Len() {
		return buf.Len()
	}
	if buf.RuneAt(pos) == '\n' {
		return pos + 1
	}
	for _, b := range graphemeBounds(buf, pos) {
		if b > pos {
			return b
		}
	}
	return lineEnd(buf, pos)
}

func lineStart(buf *text.Buffer, pos int) int {
	for pos > 0 && buf.RuneAt(pos-1) != '\n' {
		pos--
	}
	return pos
}

func lineEnd(buf *text.Buffer, pos int) int {
	n := buf.Len()
	for pos < n && buf.RuneAt(pos) != '\n' {
		pos++
	}
	return pos
}
