package settings

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"textinput/internal/logging"
	"textinput/internal/sysprop"
)

// Table is a typed view of one settings table for one user.
type Table struct {
	cache    *NameValueCache
	resolver *Resolver
	moved    map[string]string
	user     int
	logger   *slog.Logger
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.cache.Table()
}

// Cache returns the underlying cache.
func (t *Table) Cache() *NameValueCache {
	return t.cache
}

// ForUser returns a view of the same table for another user. Reads for
// users other than the caller's own are not cached.
func (t *Table) ForUser(user int) *Table {
	cp := *t
	cp.user = user
	return &cp
}

// MovedTo returns the table a key has moved to, if it has.
func (t *Table) MovedTo(name string) (string, bool) {
	dest, ok := t.moved[name]
	return dest, ok
}

// GetString returns the value of name. Keys that moved to another table are
// read from there.
func (t *Table) GetString(ctx context.Context, name string) (string, bool) {
	if dest, ok := t.moved[name]; ok {
		t.logger.Warn("setting has moved, returning read-only value",
			"name", name, "from", t.Name(), "to", dest)
		return t.resolver.mustTable(dest).ForUser(t.user).GetString(ctx, name)
	}
	return t.cache.GetString(ctx, name, t.user)
}

// PutString stores value under name. Writes to keys that moved to another
// table are refused.
func (t *Table) PutString(ctx context.Context, name, value string) bool {
	if dest, ok := t.moved[name]; ok {
		t.logger.Warn("setting has moved, value is unchanged",
			"name", name, "from", t.Name(), "to", dest)
		return false
	}
	return t.cache.PutString(ctx, name, value, t.user)
}

// GetInt returns the value as an int, or def when it is missing or not a
// number.
func (t *Table) GetInt(ctx context.Context, name string, def int) int {
	v, err := t.GetIntStrict(ctx, name)
	if err != nil {
		return def
	}
	return v
}

// GetIntStrict returns the value as an int or a *SettingNotFoundError.
func (t *Table) GetIntStrict(ctx context.Context, name string) (int, error) {
	s, err := t.lookup(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, t.notFound(name, err)
	}
	return v, nil
}

// GetLong returns the value as an int64, or def.
func (t *Table) GetLong(ctx context.Context, name string, def int64) int64 {
	v, err := t.GetLongStrict(ctx, name)
	if err != nil {
		return def
	}
	return v
}

// GetLongStrict returns the value as an int64 or a *SettingNotFoundError.
func (t *Table) GetLongStrict(ctx context.Context, name string) (int64, error) {
	s, err := t.lookup(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, t.notFound(name, err)
	}
	return v, nil
}

// GetFloat returns the value as a float64, or def.
func (t *Table) GetFloat(ctx context.Context, name string, def float64) float64 {
	v, err := t.GetFloatStrict(ctx, name)
	if err != nil {
		return def
	}
	return v
}

// GetFloatStrict returns the value as a float64 or a *SettingNotFoundError.
func (t *Table) GetFloatStrict(ctx context.Context, name string) (float64, error) {
	s, err := t.lookup(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.notFound(name, err)
	}
	return v, nil
}

// GetBool treats any non-zero integer as true.
func (t *Table) GetBool(ctx context.Context, name string, def bool) bool {
	d := 0
	if def {
		d = 1
	}
	return t.GetInt(ctx, name, d) != 0
}

// PutInt stores an int.
func (t *Table) PutInt(ctx context.Context, name string, v int) bool {
	return t.PutString(ctx, name, strconv.Itoa(v))
}

// PutLong stores an int64.
func (t *Table) PutLong(ctx context.Context, name string, v int64) bool {
	return t.PutString(ctx, name, strconv.FormatInt(v, 10))
}

// PutFloat stores a float64.
func (t *Table) PutFloat(ctx context.Context, name string, v float64) bool {
	return t.PutString(ctx, name, strconv.FormatFloat(v, 'g', -1, 64))
}

// PutBool stores a bool as 1 or 0.
func (t *Table) PutBool(ctx context.Context, name string, v bool) bool {
	if v {
		return t.PutInt(ctx, name, 1)
	}
	return t.PutInt(ctx, name, 0)
}

func (t *Table) lookup(ctx context.Context, name string) (string, error) {
	s, ok := t.GetString(ctx, name)
	if !ok {
		return "", t.notFound(name, nil)
	}
	return strings.TrimSpace(s), nil
}

func (t *Table) notFound(name string, err error) error {
	return &SettingNotFoundError{Table: t.Name(), Name: name, Err: err}
}

// Resolver gives access to all tables through one provider.
type Resolver struct {
	System *Table
	Secure *Table
	Global *Table
}

// ResolverOptions configures NewResolver.
type ResolverOptions struct {
	// User is the caller's own user ID. Defaults to UserOwner.
	User   int
	Logger *slog.Logger
}

// NewResolver builds the three tables over provider, reading version
// properties from props.
func NewResolver(provider Provider, props sysprop.Reader, opts ResolverOptions) *Resolver {
	logger := logging.Component(opts.Logger, "settings")
	r := &Resolver{}
	mk := func(name string, moved map[string]string) *Table {
		return &Table{
			cache:    NewNameValueCache(name, provider, props, opts.User, opts.Logger),
			resolver: r,
			moved:    moved,
			user:     UserCurrent,
			logger:   logger,
		}
	}
	r.System = mk(TableSystem, systemMoved)
	r.Secure = mk(TableSecure, secureMoved)
	r.Global = mk(TableGlobal, nil)
	return r
}

// Table returns the table with the given name.
func (r *Resolver) Table(name string) (*Table, bool) {
	switch name {
	case TableSystem:
		return r.System, true
	case TableSecure:
		return r.Secure, true
	case TableGlobal:
		return r.Global, true
	}
	return nil, false
}

func (r *Resolver) mustTable(name string) *Table {
	t, ok := r.Table(name)
	if !ok {
		panic("settings: unknown table " + name)
	}
	return t
}
