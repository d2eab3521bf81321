package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textinput/internal/autocap"
	"textinput/internal/autotext"
	"textinput/internal/key"
	"textinput/internal/logging"
	"textinput/internal/text"
)

func newTestComposer(cfg Config) *Composer {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return New(cfg)
}

func typeString(t *testing.T, c *Composer, buf *text.Buffer, s string) {
	t.Helper()
	for _, r := range s {
		res := c.OnKeyEvent(buf, key.NewRuneEvent(r))
		require.True(t, res.Handled, "typing %q", r)
	}
}

func press(c *Composer, buf *text.Buffer, code key.Code) Result {
	return c.OnKeyEvent(buf, key.NewCodeEvent(code, key.ModNone))
}

func testDictionary() *autotext.Dictionary {
	d := autotext.New("en")
	d.Add(autotext.DefaultContext, "teh", "the")
	d.Add(autotext.DefaultContext, "adn", "and")
	d.Add("email", "sig", "Regards")
	return d
}

func autoTextConfig() Config {
	return Config{
		Capitalize: autocap.None,
		AutoText:   true,
		Prefs:      DefaultPrefs,
		Dictionary: testDictionary(),
	}
}

func TestPlainTyping(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("")

	typeString(t, c, buf, "hello")
	assert.Equal(t, "hello", buf.String())
	assert.Equal(t, text.Cursor(5), buf.Selection())

	lt, ok := buf.Get(text.LastTyped)
	require.True(t, ok)
	assert.Equal(t, 4, lt.Start)
	assert.Equal(t, 5, lt.End)
}

func TestTypingReplacesSelection(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("abcd")
	buf.SetSelection(3, 1)

	typeString(t, c, buf, "x")
	assert.Equal(t, "axd", buf.String())
	assert.Equal(t, text.Cursor(2), buf.Selection())
}

func TestInvalidSelectionIsReset(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("xyz")
	buf.SetSelection(-1, -1)

	typeString(t, c, buf, "a")
	assert.Equal(t, "axyz", buf.String())
	assert.Equal(t, text.Cursor(1), buf.Selection())
}

func TestSelectionPastEndIsClamped(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("abc")
	buf.SetSelection(10, 10)

	typeString(t, c, buf, "x")
	assert.Equal(t, "abcx", buf.String())
	assert.Equal(t, text.Cursor(4), buf.Selection())

	buf = text.New("abc")
	buf.SetSelection(1, 10)
	typeString(t, c, buf, "x")
	assert.Equal(t, "ax", buf.String())
	assert.Equal(t, text.Cursor(2), buf.Selection())
}

func TestDeadKeyWithSelectionPastEnd(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("abc")
	buf.SetSelection(10, 10)

	c.OnKeyEvent(buf, key.NewAccentEvent('´'))
	active, ok := buf.Get(text.Active)
	require.True(t, ok)
	assert.Equal(t, 3, active.Start)
	assert.Equal(t, 4, active.End)
	assert.Equal(t, text.Selection{Start: 3, End: 4}, buf.Selection())
	assert.LessOrEqual(t, buf.Selection().End, buf.Len())

	typeString(t, c, buf, "e")
	assert.Equal(t, "abcé", buf.String())
	assert.Equal(t, text.Cursor(4), buf.Selection())
}

func TestAutoCapToggle(t *testing.T) {
	c := newTestComposer(Config{Capitalize: autocap.Sentences, Prefs: DefaultPrefs})
	buf := text.New("")

	typeString(t, c, buf, "h")
	assert.Equal(t, "H", buf.String())
	capped, ok := buf.Get(text.Capped)
	require.True(t, ok)
	assert.Equal(t, 'h', capped.Rune)

	press(c, buf, key.CodeDel)
	assert.Equal(t, "", buf.String())

	typeString(t, c, buf, "h")
	assert.Equal(t, "h", buf.String(), "retyping after backspace keeps lowercase")
	assert.False(t, buf.Has(text.Capped))

	typeString(t, c, buf, "i. w")
	assert.Equal(t, "hi. W", buf.String())
	capped, ok = buf.Get(text.Capped)
	require.True(t, ok)
	assert.Equal(t, 3, capped.Start)
	assert.Equal(t, 4, capped.End)

	press(c, buf, key.CodeDel)
	typeString(t, c, buf, "w")
	assert.Equal(t, "hi. w", buf.String())
}

func TestAutoCapModes(t *testing.T) {
	tests := []struct {
		name  string
		mode  autocap.Mode
		prefs Prefs
		input string
		want  string
	}{
		{"none", autocap.None, DefaultPrefs, "a b. c", "a b. c"},
		{"sentences", autocap.Sentences, DefaultPrefs, "a b. c", "A b. C"},
		{"words", autocap.Words, DefaultPrefs, "a b. c", "A B. C"},
		{"characters", autocap.Characters, DefaultPrefs, "ab", "AB"},
		{"abbreviation", autocap.Sentences, DefaultPrefs, "see e.g. this", "See e.g. this"},
		{"pref off", autocap.Sentences, DefaultPrefs &^ PrefAutoCap, "a b. c", "a b. c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer(Config{Capitalize: tt.mode, Prefs: tt.prefs})
			buf := text.New("")
			typeString(t, c, buf, tt.input)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestAutoTextReplaceAndUndo(t *testing.T) {
	c := newTestComposer(autoTextConfig())
	buf := text.New("")

	typeString(t, c, buf, "teh ")
	assert.Equal(t, "the ", buf.String())
	rep, ok := buf.Get(text.Replaced)
	require.True(t, ok)
	assert.Equal(t, "teh", rep.Text)
	assert.Equal(t, 0, rep.Start)
	assert.Equal(t, 3, rep.End)

	res := press(c, buf, key.CodeDel)
	assert.True(t, res.Handled)
	assert.Equal(t, "teh ", buf.String())
	assert.Equal(t, text.Cursor(4), buf.Selection())
	assert.False(t, buf.Has(text.Replaced))
	inhibit, ok := buf.Get(text.InhibitReplacement)
	require.True(t, ok)
	assert.Equal(t, 2, inhibit.Start)
	assert.Equal(t, 3, inhibit.End)

	press(c, buf, key.CodeDel)
	assert.Equal(t, "teh", buf.String())

	typeString(t, c, buf, " ")
	assert.Equal(t, "teh ", buf.String(), "undone word is not replaced again")

	typeString(t, c, buf, "adn,")
	assert.Equal(t, "teh and,", buf.String())
}

func TestAutoTextBackspaceInsideReplacement(t *testing.T) {
	c := newTestComposer(autoTextConfig())
	buf := text.New("")
	typeString(t, c, buf, "teh ")

	press(c, buf, key.CodeLeft)
	press(c, buf, key.CodeLeft)
	require.Equal(t, text.Cursor(2), buf.Selection())

	press(c, buf, key.CodeDel)
	assert.Equal(t, "te ", buf.String())
	assert.False(t, buf.Has(text.Replaced))
}

func TestAutoTextCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"teh ", "the "},
		{"Teh ", "The "},
		{"TEH ", "THE "},
		{"tEh ", "The "},
		{"teh.", "the."},
		{"teh)", "the)"},
		{"teh\n", "the\n"},
		{"tehx ", "tehx "},
		{"it's teh”", "it's the”"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := newTestComposer(autoTextConfig())
			buf := text.New("")
			typeString(t, c, buf, tt.input)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestAutoTextGating(t *testing.T) {
	t.Run("field", func(t *testing.T) {
		cfg := autoTextConfig()
		cfg.AutoText = false
		buf := text.New("")
		typeString(t, newTestComposer(cfg), buf, "teh ")
		assert.Equal(t, "teh ", buf.String())
	})
	t.Run("prefs", func(t *testing.T) {
		c := newTestComposer(autoTextConfig())
		c.SetPrefs(DefaultPrefs &^ PrefAutoText)
		buf := text.New("")
		typeString(t, c, buf, "teh ")
		assert.Equal(t, "teh ", buf.String())
		assert.False(t, c.Config().Prefs.Has(PrefAutoText))
	})
	t.Run("context", func(t *testing.T) {
		cfg := autoTextConfig()
		buf := text.New("")
		typeString(t, newTestComposer(cfg), buf, "sig ")
		assert.Equal(t, "sig ", buf.String())

		cfg.Context = "email"
		buf = text.New("")
		typeString(t, newTestComposer(cfg), buf, "sig teh ")
		assert.Equal(t, "Regards the ", buf.String())
	})
}

func TestDoubleSpacePeriod(t *testing.T) {
	tests := []struct {
		name  string
		prefs Prefs
		input string
		want  string
	}{
		{"word", DefaultPrefs, "word  ", "word. "},
		{"digit", DefaultPrefs, "word1  ", "word1. "},
		{"quoted", DefaultPrefs, "\"hi\"  ", "\"hi\". "},
		{"after bang", DefaultPrefs, "hi!  ", "hi!  "},
		{"leading", DefaultPrefs, "  ", "  "},
		{"pref off", DefaultPrefs &^ PrefAutoPeriod, "word  ", "word  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := autoTextConfig()
			cfg.Prefs = tt.prefs
			buf := text.New("")
			typeString(t, newTestComposer(cfg), buf, tt.input)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDeadKeys(t *testing.T) {
	tests := []struct {
		name   string
		accent rune
		base   rune
		want   string
	}{
		{"acute", '´', 'e', "é"},
		{"grave", '`', 'a', "à"},
		{"circumflex", '^', 'o', "ô"},
		{"umlaut", '¨', 'u', "ü"},
		{"tilde", '~', 'n', "ñ"},
		{"space", '´', ' ', "´"},
		{"no composition", '´', 'x', "´x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer(Config{Prefs: DefaultPrefs})
			buf := text.New("")

			res := c.OnKeyEvent(buf, key.NewAccentEvent(tt.accent))
			require.True(t, res.Handled)
			assert.Equal(t, text.Selection{Start: 0, End: 1}, buf.Selection())
			assert.True(t, buf.Has(text.Active))

			typeString(t, c, buf, string(tt.base))
			assert.Equal(t, tt.want, buf.String())
			assert.False(t, buf.Has(text.Active))
			assert.True(t, buf.Selection().Collapsed())
		})
	}
}

func TestDeadKeyStaleActive(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("")

	c.OnKeyEvent(buf, key.NewAccentEvent('´'))
	buf.SetCursor(1)
	typeString(t, c, buf, "e")
	assert.Equal(t, "´e", buf.String())
	assert.False(t, buf.Has(text.Active))
}

func TestDeadKeyCapitalized(t *testing.T) {
	c := newTestComposer(Config{Capitalize: autocap.Sentences, Prefs: DefaultPrefs})
	buf := text.New("")

	c.OnKeyEvent(buf, key.NewAccentEvent('´'))
	typeString(t, c, buf, "e")
	assert.Equal(t, "É", buf.String())
}

func TestHexInput(t *testing.T) {
	hex := key.NewRuneEvent(key.HexInput)
	tests := []struct {
		name    string
		initial string
		sel     text.Selection
		want    string
		wantSel text.Selection
	}{
		{"four digits", "x1a2B", text.Cursor(5), "x\u1a2b", text.Cursor(2)},
		{"only four consumed", "f1a2B", text.Cursor(5), "f\u1a2b", text.Cursor(2)},
		{"short run", "zz4f", text.Cursor(4), "zzO", text.Cursor(3)},
		{"selection", "abc 263A", text.Selection{Start: 4, End: 8}, "abc \u263a", text.Cursor(5)},
		{"zero", "0000", text.Cursor(4), "0000", text.Cursor(4)},
		{"no digits", "xyz", text.Cursor(3), "xyz", text.Cursor(3)},
		{"bad selection", "zz", text.Selection{Start: 0, End: 2}, "zz", text.Selection{Start: 0, End: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer(Config{Prefs: DefaultPrefs})
			buf := text.New(tt.initial)
			buf.SetSelection(tt.sel.Start, tt.sel.End)

			res := c.OnKeyEvent(buf, hex)
			assert.True(t, res.Handled)
			assert.Nil(t, res.Picker)
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, tt.wantSel, buf.Selection())
		})
	}
}

func TestDotWWW(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	ev := key.NewRuneEvent(key.DotWWWInput)

	buf := text.New("")
	assert.True(t, c.OnKeyEvent(buf, ev).Handled)
	assert.Equal(t, "www.", buf.String())

	typeString(t, c, buf, "example")
	assert.True(t, c.OnKeyEvent(buf, ev).Handled)
	assert.Equal(t, "www.example.com", buf.String())
	assert.Equal(t, text.Cursor(15), buf.Selection())
}

func TestPickerSentinel(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("ab")
	buf.SetCursor(1)

	res := c.OnKeyEvent(buf, key.NewRuneEvent(key.PickerDialogInput))
	require.True(t, res.Handled)
	require.NotNil(t, res.Picker)
	assert.True(t, res.Picker.Insert)
	assert.Equal(t, "ab", buf.String())

	c.ApplyPick(buf, res.Picker, '•')
	assert.Equal(t, "a•b", buf.String())
	assert.Equal(t, text.Cursor(2), buf.Selection())
}

func TestRepeatPicker(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("")
	typeString(t, c, buf, "e")

	res := c.OnKeyEvent(buf, key.NewRuneEvent('e').WithRepeat(1))
	require.True(t, res.Handled)
	require.NotNil(t, res.Picker)
	assert.Equal(t, 'e', res.Picker.Base)
	assert.False(t, res.Picker.Insert)
	assert.True(t, res.Picker.Offers('é'))

	res = c.OnKeyEvent(buf, key.NewRuneEvent('e').WithRepeat(2))
	assert.True(t, res.Handled)
	assert.Nil(t, res.Picker, "later repeats are swallowed")
	assert.Equal(t, "e", buf.String())

	c.ApplyPick(buf, res.Picker, 'é')
	assert.Equal(t, "e", buf.String(), "nil request is ignored")

	res = c.OnKeyEvent(buf, key.NewRuneEvent('e').WithRepeat(1))
	c.ApplyPick(buf, res.Picker, 'é')
	assert.Equal(t, "é", buf.String())
	assert.Equal(t, text.Cursor(1), buf.Selection())
}

func TestRepeatPickerUppercase(t *testing.T) {
	c := newTestComposer(Config{Capitalize: autocap.Sentences, Prefs: DefaultPrefs})
	buf := text.New("")
	typeString(t, c, buf, "e")
	require.Equal(t, "E", buf.String())

	res := c.OnKeyEvent(buf, key.NewRuneEvent('e').WithRepeat(1))
	require.NotNil(t, res.Picker)
	assert.Equal(t, 'E', res.Picker.Base)
}

func TestRepeatWithoutPicker(t *testing.T) {
	t.Run("full keyboard", func(t *testing.T) {
		c := newTestComposer(Config{FullKeyboard: true, Prefs: DefaultPrefs})
		buf := text.New("e")
		res := c.OnKeyEvent(buf, key.NewRuneEvent('e').WithRepeat(1))
		assert.True(t, res.Handled)
		assert.Nil(t, res.Picker)
		assert.Equal(t, "ee", buf.String())
	})
	t.Run("no set", func(t *testing.T) {
		c := newTestComposer(Config{Prefs: DefaultPrefs})
		buf := text.New("q")
		res := c.OnKeyEvent(buf, key.NewRuneEvent('q').WithRepeat(1))
		assert.Nil(t, res.Picker)
		assert.Equal(t, "qq", buf.String())
	})
}

func TestCodeKeysInsertCharacters(t *testing.T) {
	c := newTestComposer(Config{Prefs: DefaultPrefs})
	buf := text.New("")

	press(c, buf, key.CodeEnter)
	press(c, buf, key.CodeTab)
	c.OnKeyEvent(buf, key.NewCodeEvent(key.CodeSpace, key.ModShift))
	assert.Equal(t, "\n\t ", buf.String())

	res := c.OnKeyEvent(buf, key.NewCodeEvent(key.CodeEnter, key.ModCtrl))
	assert.False(t, res.Handled)
	assert.False(t, press(c, buf, key.CodeUp).Handled)
}
