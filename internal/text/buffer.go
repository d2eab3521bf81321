package text

import "sort"

// Buffer is an editable rune sequence with a selection and annotations.
type Buffer struct {
	text []rune
	sel  Selection
	ann  [numKinds]*Annotation
}

// New creates a buffer holding s with the cursor at the end.
func New(s string) *Buffer {
	r := []rune(s)
	return &Buffer{text: r, sel: Cursor(len(r))}
}

// String returns the buffer content.
func (b *Buffer) String() string {
	return string(b.text)
}

// Runes returns the content without copying. The slice must not be
// modified and is only valid until the next edit.
func (b *Buffer) Runes() []rune {
	return b.text[:len(b.text):len(b.text)]
}

// Len returns the length in runes.
func (b *Buffer) Len() int {
	return len(b.text)
}

// RuneAt returns the rune at i, or 0 when i is out of range.
func (b *Buffer) RuneAt(i int) rune {
	if i < 0 || i >= len(b.text) {
		return 0
	}
	return b.text[i]
}

// Slice returns the text in [start, end), clamped to the buffer.
func (b *Buffer) Slice(start, end int) string {
	start = b.Clamp(start)
	end = b.Clamp(end)
	if end <= start {
		return ""
	}
	return string(b.text[start:end])
}

// Clamp limits an offset to [0, Len()].
func (b *Buffer) Clamp(off int) int {
	return clamp(off, 0, len(b.text))
}

// Selection returns the current selection as stored. It may be invalid if
// the caller set it that way; the composer normalizes it before use.
func (b *Buffer) Selection() Selection {
	return b.sel
}

// SetSelection stores the selection without validation.
func (b *Buffer) SetSelection(start, end int) {
	b.sel = Selection{Start: start, End: end}
}

// SetCursor collapses the selection at pos, clamped to the buffer.
func (b *Buffer) SetCursor(pos int) {
	pos = b.Clamp(pos)
	b.sel = Cursor(pos)
}

// Replace substitutes [start, end) with s and moves the selection and
// all annotations accordingly. Offsets are clamped and ordered.
func (b *Buffer) Replace(start, end int, s string) {
	st, en := b.Clamp(start), b.Clamp(end)
	if en < st {
		st, en = en, st
	}
	ins := []rune(s)
	n := len(ins)

	out := make([]rune, 0, len(b.text)-(en-st)+n)
	out = append(out, b.text[:st]...)
	out = append(out, ins...)
	out = append(out, b.text[en:]...)
	b.text = out

	b.sel.Start = moveEndpoint(b.sel.Start, st, en, n, Point)
	b.sel.End = moveEndpoint(b.sel.End, st, en, n, Point)

	for k, a := range b.ann {
		if a == nil {
			continue
		}
		wasEmpty := a.Start == a.End
		if a.Flags == ExclusiveExclusive && a.Start == st && a.End == en && en > st {
			a.End = st + n
			if n == 0 {
				b.ann[k] = nil
			}
			continue
		}
		a.Start = moveEndpoint(a.Start, st, en, n, a.Flags.Start)
		a.End = moveEndpoint(a.End, st, en, n, a.Flags.End)
		if a.End < a.Start {
			a.End = a.Start
		}
		if a.Flags == ExclusiveExclusive && !wasEmpty && a.Start == a.End {
			b.ann[k] = nil
		}
	}
}

// Insert inserts s at pos.
func (b *Buffer) Insert(pos int, s string) {
	b.Replace(pos, pos, s)
}

// Delete removes [start, end).
func (b *Buffer) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Set installs an annotation of the given kind, evicting any previous one.
func (b *Buffer) Set(a Annotation) {
	if a.Kind >= numKinds {
		return
	}
	a.Start = b.Clamp(a.Start)
	a.End = b.Clamp(a.End)
	if a.End < a.Start {
		a.Start, a.End = a.End, a.Start
	}
	b.ann[a.Kind] = &a
}

// Mark installs a payload-free annotation.
func (b *Buffer) Mark(k Kind, start, end int, flags Flags) {
	b.Set(Annotation{Kind: k, Start: start, End: end, Flags: flags})
}

// Get returns the live annotation of the given kind.
func (b *Buffer) Get(k Kind) (Annotation, bool) {
	if k >= numKinds || b.ann[k] == nil {
		return Annotation{}, false
	}
	return *b.ann[k], true
}

// Has reports whether an annotation of kind k is live.
func (b *Buffer) Has(k Kind) bool {
	_, ok := b.Get(k)
	return ok
}

// SpanStart returns the start of the annotation of kind k, or -1.
func (b *Buffer) SpanStart(k Kind) int {
	if a, ok := b.Get(k); ok {
		return a.Start
	}
	return -1
}

// SpanEnd returns the end of the annotation of kind k, or -1.
func (b *Buffer) SpanEnd(k Kind) int {
	if a, ok := b.Get(k); ok {
		return a.End
	}
	return -1
}

// Remove drops the annotation of kind k.
func (b *Buffer) Remove(k Kind) {
	if k < numKinds {
		b.ann[k] = nil
	}
}

// Overlapping returns the annotation of kind k if it intersects
// [start, end).
func (b *Buffer) Overlapping(k Kind, start, end int) (Annotation, bool) {
	a, ok := b.Get(k)
	if !ok || !overlaps(a.Start, a.End, start, end) {
		return Annotation{}, false
	}
	return a, true
}

// Annotations returns all live annotations ordered by start offset.
func (b *Buffer) Annotations() []Annotation {
	var out []Annotation
	for _, a := range b.ann {
		if a != nil {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// ClearAnnotations drops every annotation, e.g. when focus leaves the
// text field and transient input state must not survive.
func (b *Buffer) ClearAnnotations() {
	for k := range b.ann {
		b.ann[k] = nil
	}
}
