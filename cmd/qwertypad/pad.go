package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"textinput/internal/compose"
	"textinput/internal/picker"
	"textinput/internal/termkey"
	"textinput/internal/text"
)

var (
	styleText   = tcell.StyleDefault
	styleStatus = tcell.StyleDefault.Reverse(true)
	stylePicker = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleChoice = tcell.StyleDefault.Reverse(true).Foreground(tcell.ColorYellow)
)

// Pad is the editing state of the scratchpad: one buffer, the composer
// that edits it and an optional open picker.
type Pad struct {
	buf      *text.Buffer
	composer *compose.Composer
	keys     *termkey.Translator

	pick    *picker.Request
	pickIdx int

	output  string
	message string
	online  func() bool
	dictLen func() int
	quit    bool
}

// NewPad creates an empty pad. output is the file written by Ctrl+S; empty
// disables saving.
func NewPad(c *compose.Composer, output string) *Pad {
	return &Pad{
		buf:      text.New(""),
		composer: c,
		keys:     termkey.NewTranslator(),
		output:   output,
		online:   func() bool { return false },
		dictLen:  func() int { return 0 },
	}
}

// Text returns the buffer content.
func (p *Pad) Text() string {
	return p.buf.String()
}

// Quit reports whether the user asked to leave.
func (p *Pad) Quit() bool {
	return p.quit
}

// HandleKey applies one terminal key event.
func (p *Pad) HandleKey(ev *tcell.EventKey) {
	p.message = ""

	switch {
	case isCtrl(ev, tcell.KeyCtrlC, 'c'):
		p.quit = true
		return
	case isCtrl(ev, tcell.KeyCtrlS, 's'):
		p.save()
		return
	}

	if p.pick != nil {
		p.handlePicker(ev)
		return
	}

	if ev.Key() == tcell.KeyEscape {
		p.quit = true
		return
	}

	kev, ok := p.keys.Translate(ev)
	if !ok {
		return
	}

	res := p.composer.OnKeyEvent(p.buf, kev)
	if res.Picker != nil {
		p.pick = res.Picker
		p.pickIdx = 0
	}
	if !res.Handled {
		p.message = "unhandled " + kev.String()
	}
}

// isCtrl matches Ctrl+letter whether the terminal reports it as a control
// key or as a rune with the Ctrl modifier.
func isCtrl(ev *tcell.EventKey, k tcell.Key, letter rune) bool {
	if ev.Key() == k {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 && ev.Rune() == letter
}

func (p *Pad) handlePicker(ev *tcell.EventKey) {
	kev, ok := p.keys.Translate(ev)
	// The held key keeps repeating while the picker is open.
	if ok && kev.IsRepeat() {
		return
	}

	choices := p.pick.Choices()
	switch ev.Key() {
	case tcell.KeyEscape:
		p.pick = nil
		return
	case tcell.KeyLeft:
		p.pickIdx = (p.pickIdx + len(choices) - 1) % len(choices)
		return
	case tcell.KeyRight, tcell.KeyTab:
		p.pickIdx = (p.pickIdx + 1) % len(choices)
		return
	case tcell.KeyEnter:
		p.choose(choices[p.pickIdx])
		return
	case tcell.KeyRune:
		r := ev.Rune()
		if r >= '1' && r <= '9' && int(r-'1') < len(choices) && !p.pick.Offers(r) {
			p.choose(choices[r-'1'])
			return
		}
		if p.pick.Offers(r) {
			p.choose(r)
		}
	}
}

func (p *Pad) choose(r rune) {
	p.composer.ApplyPick(p.buf, p.pick, r)
	p.pick = nil
	p.keys.Reset()
}

func (p *Pad) save() {
	if p.output == "" {
		p.message = "no output file (use -o)"
		return
	}
	if err := os.WriteFile(p.output, []byte(p.buf.String()), 0644); err != nil {
		p.message = "save failed: " + err.Error()
		return
	}
	p.message = "saved " + p.output
}

// Draw renders the pad: the text with the cursor, the picker row when one
// is open and a status line.
func (p *Pad) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()
	if w <= 0 || h <= 1 {
		s.Show()
		return
	}

	textRows := h - 1
	if p.pick != nil {
		textRows--
	}

	cx, cy := p.drawText(s, w, textRows)
	if cy < textRows {
		s.ShowCursor(cx, cy)
	} else {
		s.HideCursor()
	}

	if p.pick != nil {
		p.drawPicker(s, w, h-2)
	}
	drawLine(s, 0, h-1, w, p.statusLine(), styleStatus)
	s.Show()
}

// drawText lays out the buffer by grapheme cluster and returns the cursor
// cell.
func (p *Pad) drawText(s tcell.Screen, w, rows int) (int, int) {
	cursor := p.buf.Clamp(p.buf.Selection().End)
	x, y := 0, 0
	cx, cy := 0, 0
	off := 0

	g := uniseg.NewGraphemes(p.buf.String())
	for g.Next() {
		runes := g.Runes()
		if off <= cursor && cursor < off+len(runes) {
			cx, cy = x, y
		}
		off += len(runes)

		if runes[0] == '\n' {
			x, y = 0, y+1
			continue
		}
		if runes[0] == '\t' {
			x += 4 - x%4
			continue
		}

		width := max(g.Width(), 1)
		if x+width > w {
			x, y = 0, y+1
		}
		if y < rows {
			s.SetContent(x, y, runes[0], runes[1:], styleText)
		}
		x += width
	}
	if cursor >= off {
		if x >= w {
			x, y = 0, y+1
		}
		cx, cy = x, y
	}
	return cx, cy
}

func (p *Pad) drawPicker(s tcell.Screen, w, y int) {
	x := 0
	for i, r := range p.pick.Choices() {
		label := fmt.Sprintf(" %c ", r)
		if i < 9 {
			label = fmt.Sprintf(" %d:%c ", i+1, r)
		}
		style := stylePicker
		if i == p.pickIdx {
			style = styleChoice
		}
		x = drawString(s, x, y, w, label, style)
	}
}

func (p *Pad) statusLine() string {
	var sb strings.Builder
	if p.message != "" {
		sb.WriteString(p.message)
		sb.WriteString(" | ")
	}
	daemon := "offline"
	if p.online() {
		daemon = "online"
	}
	cfg := p.composer.Config()
	fmt.Fprintf(&sb, "%s | %s | cap:%s | dict:%d | ^X hex ^P picker ^W www ^S save Esc quit",
		daemon, cfg.Prefs, cfg.Capitalize, p.dictLen())
	return sb.String()
}

func drawLine(s tcell.Screen, x, y, w int, str string, style tcell.Style) {
	end := drawString(s, x, y, w, str, style)
	for ; end < w; end++ {
		s.SetContent(end, y, ' ', nil, style)
	}
}

func drawString(s tcell.Screen, x, y, w int, str string, style tcell.Style) int {
	g := uniseg.NewGraphemes(str)
	for g.Next() && x < w {
		runes := g.Runes()
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += max(g.Width(), 1)
	}
	return x
}
