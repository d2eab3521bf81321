// Package store keeps settings tables in a SQLite database.
package store

import "time"

// Setting is one stored name/value pair.
type Setting struct {
	Table     string
	User      int
	Name      string
	Value     string
	UpdatedAt time.Time
}

// Change describes a write to a settings table.
type Change struct {
	ID      int64
	Table   string
	User    int
	Name    string
	Value   string
	Deleted bool
	// Version is the table version after the write, or 0 when no
	// property store is attached.
	Version int64
	At      time.Time
}
