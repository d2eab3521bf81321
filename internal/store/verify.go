package store

import (
	"context"
	"fmt"

	"textinput/internal/settings"
)

// Report is the result of Check.
type Report struct {
	SchemaVersion int
	Integrity     []string
	Settings      map[string]int
}

// OK reports whether the integrity check found no problems.
func (r *Report) OK() bool {
	return len(r.Integrity) == 1 && r.Integrity[0] == "ok"
}

// Check runs SQLite's integrity check, verifies the schema and counts the
// rows of each table.
func (s *Store) Check(ctx context.Context) (*Report, error) {
	if err := ValidateSchema(s.db); err != nil {
		return nil, err
	}
	v, err := schemaVersion(s.db)
	if err != nil {
		return nil, err
	}
	r := &Report{SchemaVersion: v, Settings: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan integrity check: %w", err)
		}
		r.Integrity = append(r.Integrity, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrity check: %w", err)
	}

	for _, t := range settings.Tables {
		var n int
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", t)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		r.Settings[t] = n
	}
	return r, nil
}
