package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"textinput/internal/logging"
	"textinput/internal/settings"
	"textinput/internal/sysprop"
)

var (
	ErrUnknownTable = errors.New("store: unknown table")
	ErrInvalidName  = errors.New("store: invalid setting name")
)

// Options configures Open.
type Options struct {
	// Props receives the table version bumps. Nil disables them.
	Props  sysprop.Store
	Logger *slog.Logger
}

// Store represents the SQLite settings store.
type Store struct {
	db     *sql.DB
	props  sysprop.Store
	logger *slog.Logger

	mu    sync.RWMutex
	hooks []func(Change)
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string, opts Options) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	// Secure settings are per user; keep the file private.
	if err := os.Chmod(path, 0600); err != nil {
		db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	return &Store{
		db:     db,
		props:  opts.Props,
		logger: logging.Component(opts.Logger, "store"),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// OnChange registers fn to be called after every committed write.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	hooks := s.hooks
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(c)
	}
}

func checkKey(table, name string) error {
	if !settings.ValidTable(table) {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if name == "" {
		return ErrInvalidName
	}
	return nil
}

func resolveUser(user int) int {
	if user == settings.UserCurrent {
		return settings.UserOwner
	}
	return user
}

// Get returns the value stored for name.
func (s *Store) Get(ctx context.Context, table, name string, user int) (string, bool, error) {
	if err := checkKey(table, name); err != nil {
		return "", false, err
	}
	var value sql.NullString
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %q WHERE user = ? AND name = ?`, table),
		resolveUser(user), name,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s/%s: %w", table, name, err)
	}
	return value.String, true, nil
}

// Put stores value under name. Values written to the allowed location
// providers may be "+name" or "-name" changes, merged with the stored
// list.
func (s *Store) Put(ctx context.Context, table, name, value string, user int) (Change, error) {
	if err := checkKey(table, name); err != nil {
		return Change{}, err
	}
	user = resolveUser(user)
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Change{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if table == settings.TableSecure && name == settings.LocationProvidersAllowed {
		var current sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM "secure" WHERE user = ? AND name = ?`, user, name,
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return Change{}, fmt.Errorf("read location providers: %w", err)
		}
		value = settings.MergeLocationProviders(current.String, value)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %q (user, name, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, table),
		user, name, value, now.UnixNano(),
	); err != nil {
		return Change{}, fmt.Errorf("put %s/%s: %w", table, name, err)
	}

	c := Change{Table: table, User: user, Name: name, Value: value, At: now}
	if err := s.commit(ctx, tx, &c); err != nil {
		return Change{}, err
	}
	return c, nil
}

// Delete removes name. It reports whether a row existed.
func (s *Store) Delete(ctx context.Context, table, name string, user int) (bool, error) {
	if err := checkKey(table, name); err != nil {
		return false, err
	}
	user = resolveUser(user)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE user = ? AND name = ?`, table), user, name)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", table, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	c := Change{Table: table, User: user, Name: name, Deleted: true, At: time.Now()}
	if err := s.commit(ctx, tx, &c); err != nil {
		return false, err
	}
	return true, nil
}

// commit records c in the change log, commits, then bumps the table
// version so readers never see the new version with the old value.
func (s *Store) commit(ctx context.Context, tx *sql.Tx, c *Change) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO setting_changes (table_name, user, name, value, deleted, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Table, c.User, c.Name, c.Value, c.Deleted, c.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.props != nil {
		v, err := s.props.Increment(settings.VersionProperty(c.Table))
		if err != nil {
			// The row is written; readers catch up on the next bump.
			s.logger.Error("bump version", "table", c.Table, "error", err)
		}
		c.Version = v
	}

	s.logger.Debug("setting changed", "table", c.Table, "user", c.User, "name", c.Name, "deleted", c.Deleted)
	s.notify(*c)
	return nil
}

// List returns all settings of a table for user, ordered by name.
func (s *Store) List(ctx context.Context, table string, user int) ([]Setting, error) {
	if !settings.ValidTable(table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	user = resolveUser(user)

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT name, value, updated_at FROM %q WHERE user = ? ORDER BY name`, table), user)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var st Setting
		var value sql.NullString
		var updated int64
		if err := rows.Scan(&st.Name, &value, &updated); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		st.Table = table
		st.User = user
		st.Value = value.String
		st.UpdatedAt = time.Unix(0, updated)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// Users returns every user with at least one stored setting.
func (s *Store) Users(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user FROM "system"
		UNION SELECT user FROM "secure"
		UNION SELECT user FROM "global"
		ORDER BY user`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []int
	for rows.Next() {
		var u int
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// History returns the most recent changes to name, newest first. A limit
// of zero or less returns all of them.
func (s *Store) History(ctx context.Context, table, name string, limit int) ([]Change, error) {
	if err := checkKey(table, name); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user, value, deleted, changed_at FROM setting_changes
		WHERE table_name = ? AND name = ?
		ORDER BY id DESC LIMIT ?`, table, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		c := Change{Table: table, Name: name}
		var value sql.NullString
		var at int64
		if err := rows.Scan(&c.ID, &c.User, &value, &c.Deleted, &at); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.Value = value.String
		c.At = time.Unix(0, at)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return out, nil
}
