// Package autotext holds the word-replacement dictionaries used to correct
// common typos as a word is finished.
package autotext

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Lookuper finds the replacement for a word. The lookup is exact; callers
// that want case-insensitive matching retry with a lowercased word.
// The context names the kind of text field, e.g. "email" or "uri".
type Lookuper interface {
	Lookup(word, context string) (string, bool)
}

// LookupFunc adapts a function to Lookuper.
type LookupFunc func(word, context string) (string, bool)

// Lookup calls f.
func (f LookupFunc) Lookup(word, context string) (string, bool) {
	return f(word, context)
}

// DefaultContext is the context whose entries apply to every field.
const DefaultContext = ""

// Dictionary maps words to replacements, optionally per context. Entries of
// a named context take precedence over the default context.
type Dictionary struct {
	mu      sync.RWMutex
	locale  string
	entries map[string]map[string]string
}

// New creates an empty dictionary for locale.
func New(locale string) *Dictionary {
	return &Dictionary{
		locale:  locale,
		entries: make(map[string]map[string]string),
	}
}

// Locale returns the dictionary's locale tag.
func (d *Dictionary) Locale() string {
	return d.locale
}

// Add registers a replacement for word in context.
func (d *Dictionary) Add(context, word, replacement string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.entries[context]
	if m == nil {
		m = make(map[string]string)
		d.entries[context] = m
	}
	m[word] = replacement
}

// Lookup implements Lookuper.
func (d *Dictionary) Lookup(word, context string) (string, bool) {
	if d == nil || word == "" {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if context != DefaultContext {
		if r, ok := d.entries[context][word]; ok {
			return r, true
		}
	}
	r, ok := d.entries[DefaultContext][word]
	return r, ok
}

// Len returns the number of entries across all contexts.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, m := range d.entries {
		n += len(m)
	}
	return n
}

// Contexts returns the named contexts, sorted.
func (d *Dictionary) Contexts() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	for c := range d.entries {
		if c != DefaultContext {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Store is a Lookuper whose dictionary can be swapped while in use.
type Store struct {
	d atomic.Pointer[Dictionary]
}

// NewStore creates a store serving d, which may be nil.
func NewStore(d *Dictionary) *Store {
	s := &Store{}
	if d != nil {
		s.d.Store(d)
	}
	return s
}

// Swap replaces the served dictionary.
func (s *Store) Swap(d *Dictionary) {
	s.d.Store(d)
}

// Dictionary returns the served dictionary, or nil.
func (s *Store) Dictionary() *Dictionary {
	return s.d.Load()
}

// Lookup implements Lookuper.
func (s *Store) Lookup(word, context string) (string, bool) {
	return s.d.Load().Lookup(word, context)
}
