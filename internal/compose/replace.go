package compose

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"textinput/internal/autotext"
	"textinput/internal/key"
	"textinput/internal/text"
)

var upper = cases.Upper(language.Und)

// replaceWord runs autotext on the word ending at end, the offset of the
// terminator just typed.
func (c *Composer) replaceWord(buf *text.Buffer, end int) {
	if c.cfg.Dictionary == nil {
		return
	}
	start := end
	for start > 0 && autotext.IsWordRune(buf.RuneAt(start-1)) {
		start--
	}
	if start == end {
		return
	}

	orig := buf.Slice(start, end)
	rep, ok := c.replacement(orig)
	if !ok {
		return
	}

	buf.Remove(text.Replaced)
	buf.Set(text.Annotation{
		Kind:  text.Replaced,
		Start: start,
		End:   end,
		Flags: text.ExclusiveExclusive,
		Text:  orig,
	})
	buf.Replace(start, end, rep)
	c.logger.Debug("autotext", "word", orig, "replacement", rep)
}

// replacement looks word up exactly, then lowercased. A lowercased match
// takes the case pattern of the typed word: one capital gives title case,
// all capitals give upper case and anything else title case.
func (c *Composer) replacement(word string) (string, bool) {
	rep, ok := c.cfg.Dictionary.Lookup(word, c.cfg.Context)
	changeCase := false
	if !ok {
		rep, ok = c.cfg.Dictionary.Lookup(lower(word), c.cfg.Context)
		if !ok {
			return "", false
		}
		changeCase = true
	}

	caps := 0
	if changeCase {
		for _, r := range word {
			if unicode.IsUpper(r) {
				caps++
			}
		}
	}

	out := rep
	switch {
	case caps == 0:
	case caps == utf8.RuneCountInString(word) && caps > 1:
		out = upper.String(rep)
	default:
		out = titleCase(rep)
	}

	if out == word {
		return "", false
	}
	return out, true
}

func lower(s string) string {
	r := []rune(s)
	for i := range r {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// titleCase upper-cases the first rune and leaves the rest alone.
func titleCase(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// undoReplacement restores the word autotext replaced when backspace is
// pressed right after the replacement. The restored position is marked so
// retyping the terminator does not replace the word again.
func (c *Composer) undoReplacement(buf *text.Buffer, ev key.Event, cursor int) (Result, bool) {
	consider := 1
	if cursor > 0 && buf.SpanEnd(text.LastTyped) == cursor && buf.RuneAt(cursor-1) != '\n' {
		consider = 2
	}
	rep, ok := buf.Overlapping(text.Replaced, cursor-consider, cursor)
	if !ok {
		return unhandled, false
	}
	buf.Remove(text.Replaced)

	if cursor < rep.End {
		return c.defaultKey(buf, ev), true
	}

	buf.Mark(text.InhibitReplacement, rep.End, rep.End, text.PointPoint)
	buf.Replace(rep.Start, rep.End, rep.Text)
	end := buf.SpanStart(text.InhibitReplacement)
	if end-1 >= 0 {
		buf.Mark(text.InhibitReplacement, end-1, end, text.ExclusiveExclusive)
	} else {
		buf.Remove(text.InhibitReplacement)
	}
	c.logger.Debug("autotext undo", "restored", rep.Text)
	return handled, true
}
