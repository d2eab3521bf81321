package autotext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlDict = `
locale = "en"

[words]
teh = "the"
adn = "and"

[contexts.email]
thx = "thanks"
`

const yamlDict = `
locale: en-GB
words:
  colour: color
contexts:
  uri:
    wwww: www
`

const jsonDict = `{
  "locale": "fr",
  "words": {"ca": "ça"},
  "contexts": {"email": {"cdt": "cordialement"}}
}`

func TestParseFormats(t *testing.T) {
	d, err := Parse([]byte(tomlDict), "toml")
	require.NoError(t, err)
	assert.Equal(t, "en", d.Locale())
	assert.Equal(t, 3, d.Len())
	got, ok := d.Lookup("thx", "email")
	assert.True(t, ok)
	assert.Equal(t, "thanks", got)

	d, err = Parse([]byte(yamlDict), "yml")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", d.Locale())
	got, _ = d.Lookup("wwww", "uri")
	assert.Equal(t, "www", got)

	d, err = Parse([]byte(jsonDict), "json")
	require.NoError(t, err)
	got, _ = d.Lookup("ca", "")
	assert.Equal(t, "ça", got)
}

func TestParseJSONSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", `{"words": {}, "extra": 1}`},
		{"non string replacement", `{"words": {"teh": 3}}`},
		{"empty replacement", `{"words": {"teh": ""}}`},
		{"word with digits", `{"words": {"r2d2": "droid"}}`},
		{"bad context name", `{"contexts": {"Email": {"thx": "thanks"}}}`},
		{"bad locale", `{"locale": "e"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "json")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation")
		})
	}
}

func TestParseRejectsNonWords(t *testing.T) {
	_, err := Parse([]byte("[words]\n\"a b\" = \"ab\"\n"), "toml")
	assert.Error(t, err)

	_, err = Parse([]byte("words:\n  teh: \"\"\n"), "yaml")
	assert.Error(t, err)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse([]byte(""), "ini")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlDict), 0o644))

	d, err := LoadFile(path)
	require.NoError(t, err)
	got, ok := d.Lookup("adn", "")
	assert.True(t, ok)
	assert.Equal(t, "and", got)

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
