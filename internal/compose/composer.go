package compose

import (
	"log/slog"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"textinput/internal/autocap"
	"textinput/internal/autotext"
	"textinput/internal/deadkey"
	"textinput/internal/key"
	"textinput/internal/logging"
	"textinput/internal/picker"
	"textinput/internal/text"
)

// Config selects the behavior of a Composer.
type Config struct {
	// Capitalize is the field's capitalization policy.
	Capitalize autocap.Mode

	// AutoText enables autotext and the double-space period for the field.
	// The user's Prefs must allow them too.
	AutoText bool

	// FullKeyboard disables the held-key picker, for keyboards that have a
	// key for every symbol.
	FullKeyboard bool

	Prefs Prefs

	// Dictionary supplies autotext replacements. Nil disables autotext.
	Dictionary autotext.Lookuper

	// Context is passed to the dictionary, e.g. "email".
	Context string

	// DeadKeys composes accents. Nil uses deadkey.Default.
	DeadKeys deadkey.Composer

	Logger *slog.Logger
}

// Result reports the outcome of one key event.
type Result struct {
	// Handled is false when the caller should process the event itself.
	Handled bool

	// Picker is set when the caller should show a character picker. Its
	// choice comes back through ApplyPick.
	Picker *picker.Request
}

var (
	unhandled = Result{}
	handled   = Result{Handled: true}
)

// Composer applies key events to text buffers.
type Composer struct {
	cfg    Config
	prefs  atomic.Uint32
	logger *slog.Logger
}

// New creates a Composer.
func New(cfg Config) *Composer {
	if cfg.DeadKeys == nil {
		cfg.DeadKeys = deadkey.Default
	}
	c := &Composer{
		cfg:    cfg,
		logger: logging.Component(cfg.Logger, "compose"),
	}
	c.prefs.Store(uint32(cfg.Prefs))
	return c
}

// Config returns the configuration with the current preferences.
func (c *Composer) Config() Config {
	cfg := c.cfg
	cfg.Prefs = c.Prefs()
	return cfg
}

// Prefs returns the current preferences.
func (c *Composer) Prefs() Prefs {
	return Prefs(c.prefs.Load())
}

// SetPrefs replaces the preferences. It may be called from another
// goroutine, e.g. when the settings store reports a change.
func (c *Composer) SetPrefs(p Prefs) {
	c.prefs.Store(uint32(p))
}

// OnKeyEvent applies ev to buf.
func (c *Composer) OnKeyEvent(buf *text.Buffer, ev key.Event) Result {
	sel := buf.Selection()
	if !sel.Valid() {
		sel = text.Cursor(0)
		buf.SetSelection(0, 0)
	}
	if start, end := buf.Clamp(sel.Start), buf.Clamp(sel.End); start != sel.Start || end != sel.End {
		sel = text.Selection{Start: start, End: end}
		buf.SetSelection(start, end)
	}
	selStart, selEnd := sel.Min(), sel.Max()

	prefs := c.Prefs()
	r := resolveRune(ev)

	if !c.cfg.FullKeyboard && r != 0 && ev.Repeat > 0 && selStart == selEnd && selStart > 0 {
		prev := buf.RuneAt(selStart - 1)
		if prev == r || prev == unicode.ToUpper(r) {
			if req, ok := picker.NewRequest(prev, false, ev.Repeat); ok {
				if ev.Repeat == 1 {
					return Result{Handled: true, Picker: req}
				}
				return handled
			}
		}
	}

	switch r {
	case key.PickerDialogInput:
		req, _ := picker.NewRequest(key.PickerDialogInput, true, 1)
		return Result{Handled: true, Picker: req}
	case key.DotWWWInput:
		s := ".com"
		if selStart == 0 {
			s = "www."
		}
		c.insertString(buf, selStart, selEnd, s)
		return handled
	case key.HexInput:
		c.hexInput(buf, selStart, selEnd)
		return handled
	}

	if r != 0 {
		c.typeRune(buf, r, ev.Accent, selStart, selEnd, prefs)
		return handled
	}

	if ev.Code == key.CodeDel && (ev.HasNoModifiers() || ev.HasOnly(key.ModAlt)) && selStart == selEnd {
		if res, ok := c.undoReplacement(buf, ev, selStart); ok {
			return res
		}
	}

	return c.defaultKey(buf, ev)
}

// resolveRune returns the character an event inserts. Enter, Tab and Space
// insert through the character path even when the key map left the rune
// empty.
func resolveRune(ev key.Event) rune {
	if ev.Rune != 0 {
		return ev.Rune
	}
	if !ev.HasNoModifiers() && !ev.HasOnly(key.ModShift) {
		return 0
	}
	switch ev.Code {
	case key.CodeEnter:
		return '\n'
	case key.CodeTab:
		return '\t'
	case key.CodeSpace:
		return ' '
	}
	return 0
}

// insertString replaces [start, end) with s and puts the cursor after it.
func (c *Composer) insertString(buf *text.Buffer, start, end int, s string) {
	buf.Replace(start, end, s)
	buf.SetCursor(start + utf8.RuneCountInString(s))
}

// hexInput replaces up to four hex digits before the cursor, or the
// selected text, with the code point they spell. Anything that does not
// parse leaves the buffer unchanged.
func (c *Composer) hexInput(buf *text.Buffer, selStart, selEnd int) {
	start := selStart
	if selStart == selEnd {
		for start > 0 && selEnd-start < 4 && isHexDigit(buf.RuneAt(start-1)) {
			start--
		}
	}
	cp, ok := parseHex(buf.Slice(start, selEnd))
	if !ok {
		return
	}
	c.insertString(buf, start, selEnd, string(cp))
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

func parseHex(s string) (rune, bool) {
	if s == "" || len(s) > 8 {
		return 0, false
	}
	var v rune
	for _, r := range s {
		var d rune
		switch {
		case '0' <= r && r <= '9':
			d = r - '0'
		case 'a' <= r && r <= 'f':
			d = r - 'a' + 10
		case 'A' <= r && r <= 'F':
			d = r - 'A' + 10
		default:
			return 0, false
		}
		v = v<<4 | d
	}
	if v == 0 || !utf8.ValidRune(v) {
		return 0, false
	}
	return v, true
}

// typeRune inserts one character, running dead-key composition,
// capitalization, autotext and the double-space period around it.
func (c *Composer) typeRune(buf *text.Buffer, r rune, dead bool, selStart, selEnd int, prefs Prefs) {
	composed := false
	if a, ok := buf.Get(text.Active); ok && (a.Start != selStart || a.End != selEnd) {
		buf.Remove(text.Active)
	} else if ok {
		if selEnd-selStart == 1 {
			accent := buf.RuneAt(selStart)
			if cr := c.cfg.DeadKeys.Compose(r, accent); cr != 0 {
				r = cr
				composed = true
				dead = false
			}
		}
		if !composed {
			buf.SetCursor(selEnd)
			buf.Remove(text.Active)
			selStart = selEnd
		}
	}

	if prefs.Has(PrefAutoCap) && unicode.IsLower(r) && autocap.ShouldCap(c.cfg.Capitalize, buf.Runes(), selStart) {
		if capped, ok := buf.Get(text.Capped); ok && capped.End == selStart && capped.Rune == r {
			buf.Remove(text.Capped)
		} else {
			lower := r
			r = unicode.ToUpper(r)
			if selStart == 0 {
				buf.Set(text.Annotation{Kind: text.Capped, Start: 0, End: 0, Flags: text.MarkMark, Rune: lower})
			} else {
				buf.Set(text.Annotation{Kind: text.Capped, Start: selStart - 1, End: selStart, Flags: text.ExclusiveExclusive, Rune: lower})
			}
		}
	}

	if selStart != selEnd {
		buf.SetCursor(selEnd)
	}
	buf.Mark(text.OldSelStart, selStart, selStart, text.MarkMark)
	buf.Replace(selStart, selEnd, string(r))
	oldStart := buf.SpanStart(text.OldSelStart)
	buf.Remove(text.OldSelStart)
	selEnd = buf.Selection().End

	if composed {
		buf.Remove(text.Active)
	}
	if oldStart < selEnd {
		buf.Mark(text.LastTyped, oldStart, selEnd, text.ExclusiveExclusive)
		if dead {
			buf.SetSelection(oldStart, selEnd)
			buf.Mark(text.Active, oldStart, selEnd, text.ExclusiveExclusive)
		}
	}

	if prefs.Has(PrefAutoText) && c.cfg.AutoText && isTerminator(r) && buf.SpanEnd(text.InhibitReplacement) != oldStart {
		c.replaceWord(buf, oldStart)
	}

	if prefs.Has(PrefAutoPeriod) && c.cfg.AutoText {
		doubleSpacePeriod(buf)
	}
}

// isTerminator reports whether r ends a word for autotext purposes.
func isTerminator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', '.', '!', '?', '"':
		return true
	}
	return isClosingPunct(r)
}

func isClosingPunct(r rune) bool {
	return unicode.In(r, unicode.Pe, unicode.Pf)
}

// doubleSpacePeriod turns the first of two spaces before the cursor into a
// period when they follow a word.
func doubleSpacePeriod(buf *text.Buffer) {
	end := buf.Selection().End
	if end-3 < 0 || buf.RuneAt(end-1) != ' ' || buf.RuneAt(end-2) != ' ' {
		return
	}
	j := end - 3
	for j > 0 {
		ch := buf.RuneAt(j)
		if ch != '"' && !isClosingPunct(ch) {
			break
		}
		j--
	}
	ch := buf.RuneAt(j)
	if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
		buf.Replace(end-2, end-1, ".")
	}
}

// ApplyPick writes the character chosen in a picker shown for req.
func (c *Composer) ApplyPick(buf *text.Buffer, req *picker.Request, chosen rune) {
	if req == nil || chosen == 0 {
		return
	}
	picker.Apply(buf, req, chosen)
	end := buf.Selection().End
	if end > 0 {
		buf.Mark(text.LastTyped, end-1, end, text.ExclusiveExclusive)
	}
	c.logger.Debug("picked", "base", string(req.Base), "chosen", string(chosen))
}
