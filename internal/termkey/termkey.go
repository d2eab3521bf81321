// Package termkey translates terminal key events into composer key events.
//
// Terminals report neither key releases nor dead keys, so the translator
// infers auto-repeat from identical keys arriving in quick succession and
// treats Alt with a spacing accent as a dead key. A few control keys are
// bound to the composer's reserved sentinels.
package termkey

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"textinput/internal/deadkey"
	"textinput/internal/key"
)

// DefaultRepeatWindow is the longest gap between two identical key events
// that still counts as auto-repeat.
const DefaultRepeatWindow = 80 * time.Millisecond

// Translator converts tcell key events. It keeps the auto-repeat state and
// is not safe for concurrent use.
type Translator struct {
	// RepeatWindow overrides DefaultRepeatWindow when positive.
	RepeatWindow time.Duration

	now    func() time.Time
	last   key.Event
	lastAt time.Time
	repeat int
}

// NewTranslator creates a Translator using the wall clock.
func NewTranslator() *Translator {
	return &Translator{now: time.Now}
}

// Translate converts ev. ok is false for keys the composer has no use for,
// such as function keys.
func (t *Translator) Translate(ev *tcell.EventKey) (key.Event, bool) {
	out, ok := Convert(ev)
	if !ok {
		t.last = key.Event{}
		return key.Event{}, false
	}

	now := t.clock()
	window := t.RepeatWindow
	if window <= 0 {
		window = DefaultRepeatWindow
	}
	if sameKey(out, t.last) && now.Sub(t.lastAt) <= window {
		t.repeat++
	} else {
		t.repeat = 0
	}
	t.last = out
	t.lastAt = now

	return out.WithRepeat(t.repeat), true
}

// Reset forgets the auto-repeat state.
func (t *Translator) Reset() {
	t.last = key.Event{}
	t.repeat = 0
}

func (t *Translator) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

func sameKey(a, b key.Event) bool {
	return a.Code != key.CodeUnknown && a.Code == b.Code && a.Rune == b.Rune &&
		a.Accent == b.Accent && a.Modifiers == b.Modifiers
}

// Convert maps a single tcell event without repeat tracking.
func Convert(ev *tcell.EventKey) (key.Event, bool) {
	mods := Modifiers(ev.Modifiers())

	switch ev.Key() {
	case tcell.KeyRune:
		r := ev.Rune()
		if mods.Has(key.ModCtrl) {
			if s, ok := ctrlSentinel(r); ok {
				return key.NewRuneEvent(s), true
			}
			return key.Event{}, false
		}
		if mods.Has(key.ModAlt) {
			if deadkey.IsAccent(r) {
				return key.NewAccentEvent(r), true
			}
			return key.Event{}, false
		}
		if r == ' ' {
			return key.NewCodeEvent(key.CodeSpace, mods.Without(key.ModShift)), true
		}
		// The terminal already applied Shift to the rune.
		return key.NewRuneEvent(r).WithModifiers(mods.Without(key.ModShift)), true

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NewCodeEvent(key.CodeDel, mods), true
	case tcell.KeyDelete:
		return key.NewCodeEvent(key.CodeForwardDel, mods), true
	case tcell.KeyEnter:
		return key.NewCodeEvent(key.CodeEnter, mods), true
	case tcell.KeyTab:
		return key.NewCodeEvent(key.CodeTab, mods), true
	case tcell.KeyBacktab:
		return key.NewCodeEvent(key.CodeTab, mods.With(key.ModShift)), true

	case tcell.KeyLeft:
		return key.NewCodeEvent(key.CodeLeft, mods), true
	case tcell.KeyRight:
		return key.NewCodeEvent(key.CodeRight, mods), true
	case tcell.KeyUp:
		return key.NewCodeEvent(key.CodeUp, mods), true
	case tcell.KeyDown:
		return key.NewCodeEvent(key.CodeDown, mods), true
	case tcell.KeyHome:
		return key.NewCodeEvent(key.CodeHome, mods), true
	case tcell.KeyEnd:
		return key.NewCodeEvent(key.CodeEnd, mods), true

	case tcell.KeyCtrlX:
		return key.NewRuneEvent(key.HexInput), true
	case tcell.KeyCtrlP:
		return key.NewRuneEvent(key.PickerDialogInput), true
	case tcell.KeyCtrlW:
		return key.NewRuneEvent(key.DotWWWInput), true
	}

	return key.Event{}, false
}

// ctrlSentinel handles terminals that report Ctrl+letter as a rune with
// the Ctrl modifier.
func ctrlSentinel(r rune) (rune, bool) {
	switch r {
	case 'x', 'X':
		return key.HexInput, true
	case 'p', 'P':
		return key.PickerDialogInput, true
	case 'w', 'W':
		return key.DotWWWInput, true
	}
	return 0, false
}

// Modifiers converts tcell modifier bits.
func Modifiers(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}
