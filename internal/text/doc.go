// Package text provides the editable buffer the composer works on.
//
// A Buffer is a rune slice with a Selection and a small side-table of
// annotations. Each annotation Kind has at most one live record, so
// installing an annotation evicts the previous one of the same kind.
//
// When text is replaced, annotation endpoints move according to their
// Gravity:
//
//	Mark   stays with the text before it (does not grow on insertion)
//	Point  moves with the text after it (is pushed by insertion)
//
// Endpoints after the edited range shift by the length delta. An
// exclusive-exclusive annotation that exactly covers the replaced range is
// kept over the new text, and one that a deletion collapses to zero width
// is dropped.
//
// Buffer is not safe for concurrent use; the caller serializes access,
// normally from a single event loop.
package text
