package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"textinput/internal/logging"
	"textinput/internal/sysprop"
)

type cachedValue struct {
	value string
	found bool
}

// CacheStats counts cache activity.
type CacheStats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
}

// NameValueCache reads one settings table through a Provider and caches
// the calling user's values, including misses, until the table's version
// property changes. Reads for other users bypass the cache.
type NameValueCache struct {
	table       string
	versionProp string
	provider    Provider
	props       sysprop.Reader
	user        int
	logger      *slog.Logger

	mu      sync.Mutex
	version int64
	values  map[string]cachedValue
	stats   CacheStats
}

// NewNameValueCache creates a cache for table. user is the caller's own
// user ID; requests for that ID or UserCurrent are cached.
func NewNameValueCache(table string, provider Provider, props sysprop.Reader, user int, logger *slog.Logger) *NameValueCache {
	return &NameValueCache{
		table:       table,
		versionProp: VersionProperty(table),
		provider:    provider,
		props:       props,
		user:        user,
		logger:      logging.Component(logger, "settings").With("table", table),
		values:      make(map[string]cachedValue),
	}
}

// Table returns the table name.
func (c *NameValueCache) Table() string {
	return c.table
}

func (c *NameValueCache) isSelf(user int) bool {
	return user == UserCurrent || user == c.user
}

// GetString returns the value of name for user. Provider failures are
// logged and reported as missing without being cached.
func (c *NameValueCache) GetString(ctx context.Context, name string, user int) (string, bool) {
	self := c.isSelf(user)
	var version int64
	if self {
		version = c.props.Get(c.versionProp, 0)

		c.mu.Lock()
		if c.version != version {
			c.logger.Debug("invalidate", "current", version, "cached", c.version)
			clear(c.values)
			c.version = version
			c.stats.Invalidations++
		}
		if v, ok := c.values[name]; ok {
			c.stats.Hits++
			c.mu.Unlock()
			return v.value, v.found
		}
		c.stats.Misses++
		c.mu.Unlock()
	}

	value, found, err := c.fetch(ctx, name, user)
	if err != nil {
		c.logger.Warn("can't get key", "name", name, "user", user, "error", err)
		return "", false
	}

	if self {
		c.mu.Lock()
		// Skip caching if the version moved during the fetch.
		if c.version == version && c.props.Get(c.versionProp, 0) == version {
			c.values[name] = cachedValue{value: value, found: found}
		}
		c.mu.Unlock()
	}
	return value, found
}

// fetch tries the fast-path call and falls back to a query when the
// provider does not implement it.
func (c *NameValueCache) fetch(ctx context.Context, name string, user int) (string, bool, error) {
	res, err := c.provider.Call(ctx, CallRequest{Method: GetMethod(c.table), Name: name, User: user})
	if err == nil {
		return res.Value, res.Found, nil
	}
	if !errors.Is(err, ErrUnsupported) {
		return "", false, err
	}
	return c.provider.Query(ctx, c.table, name, user)
}

// PutString stores value for name. The local cache is not updated; the
// new value becomes visible once the provider bumps the version property.
func (c *NameValueCache) PutString(ctx context.Context, name, value string, user int) bool {
	_, err := c.provider.Call(ctx, CallRequest{Method: PutMethod(c.table), Name: name, Value: value, User: user})
	if errors.Is(err, ErrUnsupported) {
		err = c.provider.Insert(ctx, c.table, name, value, user)
	}
	if err != nil {
		c.logger.Warn("can't set key", "name", name, "user", user, "error", err)
		return false
	}
	return true
}

// Stats returns a snapshot of the cache counters.
func (c *NameValueCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of cached entries.
func (c *NameValueCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
