package autotext

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "mem://textinput/autotext.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// ErrUnknownFormat is returned for files whose extension is not .toml,
// .json, .yaml or .yml.
var ErrUnknownFormat = errors.New("autotext: unknown dictionary format")

// file is the on-disk layout shared by all formats:
//
//	locale = "en"
//	[words]
//	teh = "the"
//	[contexts.email]
//	thx = "thanks"
type file struct {
	Locale   string                       `toml:"locale" json:"locale" yaml:"locale"`
	Words    map[string]string            `toml:"words" json:"words" yaml:"words"`
	Contexts map[string]map[string]string `toml:"contexts" json:"contexts" yaml:"contexts"`
}

// LoadFile reads a dictionary, choosing the decoder by extension.
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	d, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// Parse decodes a dictionary in the given format ("toml", "json", "yaml").
// JSON input is validated against the dictionary schema first.
func Parse(data []byte, format string) (*Dictionary, error) {
	var f file
	switch strings.ToLower(format) {
	case "toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case "json":
		if err := validateJSON(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return f.dictionary()
}

func (f *file) dictionary() (*Dictionary, error) {
	d := New(f.Locale)
	for w, r := range f.Words {
		if err := checkEntry(w, r); err != nil {
			return nil, err
		}
		d.Add(DefaultContext, w, r)
	}
	for c, m := range f.Contexts {
		if c == DefaultContext {
			return nil, errors.New("autotext: empty context name")
		}
		for w, r := range m {
			if err := checkEntry(w, r); err != nil {
				return nil, fmt.Errorf("context %s: %w", c, err)
			}
			d.Add(c, w, r)
		}
	}
	return d, nil
}

// checkEntry rejects words the composer could never match: it only scans
// letters and apostrophes backwards from a terminator.
func checkEntry(word, replacement string) error {
	if word == "" || replacement == "" {
		return fmt.Errorf("autotext: empty entry %q = %q", word, replacement)
	}
	if !IsWord(word) {
		return fmt.Errorf("autotext: %q is not a word", word)
	}
	return nil
}

func validateJSON(data []byte) error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	if schemaErr != nil {
		return fmt.Errorf("compile schema: %w", schemaErr)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
