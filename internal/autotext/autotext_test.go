package autotext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDictionaryLookup(t *testing.T) {
	d := New("en")
	d.Add(DefaultContext, "teh", "the")
	d.Add(DefaultContext, "thx", "thanks")
	d.Add("email", "thx", "Thank you")

	tests := []struct {
		word, ctx string
		want      string
		ok        bool
	}{
		{"teh", "", "the", true},
		{"teh", "email", "the", true},
		{"thx", "", "thanks", true},
		{"thx", "email", "Thank you", true},
		{"Teh", "", "", false},
		{"", "", "", false},
		{"nope", "uri", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Lookup(tt.word, tt.ctx)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.word, tt.ctx)
		assert.Equal(t, tt.want, got, "%s/%s", tt.word, tt.ctx)
	}

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"email"}, d.Contexts())
	assert.Equal(t, "en", d.Locale())
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	_, ok := d.Lookup("teh", "")
	assert.False(t, ok)
}

func TestStoreSwap(t *testing.T) {
	s := NewStore(nil)
	_, ok := s.Lookup("teh", "")
	assert.False(t, ok)

	d := New("en")
	d.Add("", "teh", "the")
	s.Swap(d)
	got, ok := s.Lookup("teh", "")
	assert.True(t, ok)
	assert.Equal(t, "the", got)
	assert.Same(t, d, s.Dictionary())
}

func TestLookupFunc(t *testing.T) {
	f := LookupFunc(func(word, _ string) (string, bool) { return word + "!", true })
	got, ok := f.Lookup("hi", "")
	assert.True(t, ok)
	assert.Equal(t, "hi!", got)
}

func TestIsWord(t *testing.T) {
	assert.True(t, IsWord("don't"))
	assert.True(t, IsWord("café"))
	assert.False(t, IsWord("r2d2"))
	assert.False(t, IsWord("two words"))
	assert.False(t, IsWord(""))
}
