package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textinput/internal/logging"
	"textinput/internal/sysprop"
)

var errRemote = errors.New("connection reset")

// fakeProvider wraps MemProvider and records traffic.
type fakeProvider struct {
	*MemProvider

	mu          sync.Mutex
	calls       []CallRequest
	queries     int
	inserts     int
	unsupported bool
	fail        error
	onCall      func()
}

func newFake(props sysprop.Store) *fakeProvider {
	return &fakeProvider{MemProvider: NewMemProvider(props)}
}

func (f *fakeProvider) Call(ctx context.Context, req CallRequest) (CallResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fail, unsupported, hook := f.fail, f.unsupported, f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if fail != nil {
		return CallResult{}, fail
	}
	if unsupported {
		return CallResult{}, ErrUnsupported
	}
	return f.MemProvider.Call(ctx, req)
}

func (f *fakeProvider) Query(ctx context.Context, table, name string, user int) (string, bool, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()
	return f.MemProvider.Query(ctx, table, name, user)
}

func (f *fakeProvider) Insert(ctx context.Context, table, name, value string, user int) error {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	return f.MemProvider.Insert(ctx, table, name, value, user)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestCache(t *testing.T) (*NameValueCache, *fakeProvider, *sysprop.MemStore) {
	t.Helper()
	props := sysprop.NewMemStore()
	p := newFake(props)
	return NewNameValueCache(TableSystem, p, props, UserOwner, logging.Discard()), p, props
}

func TestCacheHitAndNegativeCaching(t *testing.T) {
	ctx := context.Background()
	c, p, _ := newTestCache(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSystem, TextAutoCaps, "1", UserOwner))

	v, ok := c.GetString(ctx, TextAutoCaps, UserCurrent)
	require.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = c.GetString(ctx, TextAutoCaps, UserCurrent)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = c.GetString(ctx, "missing", UserCurrent)
	assert.False(t, ok)
	_, ok = c.GetString(ctx, "missing", UserCurrent)
	assert.False(t, ok)

	assert.Equal(t, 2, p.callCount(), "second reads come from the cache")
	st := c.Stats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(2), st.Misses)
	assert.Equal(t, 2, c.Len())
}

func TestCacheInvalidatedByVersion(t *testing.T) {
	ctx := context.Background()
	c, p, _ := newTestCache(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSystem, FontScale, "1.0", UserOwner))

	v, _ := c.GetString(ctx, FontScale, UserCurrent)
	assert.Equal(t, "1.0", v)

	assert.True(t, c.PutString(ctx, FontScale, "1.5", UserCurrent))
	v, _ = c.GetString(ctx, FontScale, UserCurrent)
	assert.Equal(t, "1.5", v, "write bumps the version and drops the cache")
	assert.Equal(t, uint64(2), c.Stats().Invalidations)
}

func TestPutDoesNotTouchCacheWithoutVersionChange(t *testing.T) {
	ctx := context.Background()
	props := sysprop.NewMemStore()
	mem := NewMemProvider(props)
	// The provider writes behind a second property store, so the reader
	// never sees the version move.
	other := NewMemProvider(sysprop.NewMemStore())
	other.values = mem.values
	c := NewNameValueCache(TableSystem, other, props, UserOwner, logging.Discard())

	require.NoError(t, mem.Insert(ctx, TableSystem, VibrateOn, "0", UserOwner))
	v, _ := c.GetString(ctx, VibrateOn, UserCurrent)
	assert.Equal(t, "0", v)

	assert.True(t, c.PutString(ctx, VibrateOn, "1", UserCurrent))
	v, _ = c.GetString(ctx, VibrateOn, UserCurrent)
	assert.Equal(t, "0", v)

	_, err := props.Increment(VersionProperty(TableSystem))
	require.NoError(t, err)
	v, _ = c.GetString(ctx, VibrateOn, UserCurrent)
	assert.Equal(t, "1", v)
}

func TestCrossUserBypassesCache(t *testing.T) {
	ctx := context.Background()
	c, p, _ := newTestCache(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSystem, Ringtone, "bells", 10))

	for i := 0; i < 3; i++ {
		v, ok := c.GetString(ctx, Ringtone, 10)
		require.True(t, ok)
		assert.Equal(t, "bells", v)
	}
	assert.Equal(t, 3, p.callCount())
	assert.Equal(t, 0, c.Len())

	_, ok := c.GetString(ctx, Ringtone, UserCurrent)
	assert.False(t, ok, "owner has no value")
}

func TestQueryFallback(t *testing.T) {
	ctx := context.Background()
	c, p, _ := newTestCache(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSystem, DateFormat, "yyyy-MM-dd", UserOwner))
	p.unsupported = true

	v, ok := c.GetString(ctx, DateFormat, UserCurrent)
	require.True(t, ok)
	assert.Equal(t, "yyyy-MM-dd", v)
	assert.Equal(t, 1, p.queries)

	_, _ = c.GetString(ctx, DateFormat, UserCurrent)
	assert.Equal(t, 1, p.queries, "fallback results are cached too")

	assert.True(t, c.PutString(ctx, DateFormat, "dd/MM/yyyy", UserCurrent))
	assert.Equal(t, 1, p.inserts)
}

func TestRemoteErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c, p, _ := newTestCache(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSystem, TextAutoReplace, "0", UserOwner))

	p.fail = errRemote
	_, ok := c.GetString(ctx, TextAutoReplace, UserCurrent)
	assert.False(t, ok)
	assert.False(t, c.PutString(ctx, TextAutoReplace, "1", UserCurrent))
	assert.Equal(t, 0, c.Len())

	p.fail = nil
	v, ok := c.GetString(ctx, TextAutoReplace, UserCurrent)
	assert.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestVersionChangeDuringFetchSkipsCache(t *testing.T) {
	ctx := context.Background()
	c, p, props := newTestCache(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSystem, ScreenBrightness, "100", UserOwner))

	p.onCall = func() {
		_, _ = props.Increment(VersionProperty(TableSystem))
	}
	_, ok := c.GetString(ctx, ScreenBrightness, UserCurrent)
	assert.True(t, ok)
	assert.Equal(t, 0, c.Len())
}

func newTestResolver(t *testing.T) (*Resolver, *fakeProvider) {
	t.Helper()
	props := sysprop.NewMemStore()
	p := newFake(props)
	return NewResolver(p, props, ResolverOptions{Logger: logging.Discard()}), p
}

func TestMovedKeys(t *testing.T) {
	ctx := context.Background()
	r, p := newTestResolver(t)
	require.NoError(t, p.MemProvider.Insert(ctx, TableSecure, LocationProvidersAllowed, "gps", UserOwner))
	require.NoError(t, p.MemProvider.Insert(ctx, TableGlobal, WifiOn, "1", UserOwner))

	v, ok := r.System.GetString(ctx, LocationProvidersAllowed)
	require.True(t, ok)
	assert.Equal(t, "gps", v)

	assert.True(t, r.System.GetBool(ctx, WifiOn, false), "system → global")
	assert.True(t, r.Secure.GetBool(ctx, WifiOn, false), "secure → global")

	assert.False(t, r.System.PutString(ctx, LocationProvidersAllowed, "network"))
	assert.False(t, r.Secure.PutInt(ctx, WifiOn, 0))
	assert.True(t, r.Global.PutInt(ctx, WifiOn, 0))

	dest, ok := r.System.MovedTo(ADBEnabled)
	assert.True(t, ok)
	assert.Equal(t, TableGlobal, dest)
	_, ok = r.System.MovedTo(TextAutoCaps)
	assert.False(t, ok)
}

func TestTypedAccessors(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t)
	sys := r.System

	assert.True(t, sys.PutInt(ctx, ScreenOffTimeout, 60000))
	assert.True(t, sys.PutLong(ctx, "big", 1<<40))
	assert.True(t, sys.PutFloat(ctx, FontScale, 1.15))
	assert.True(t, sys.PutBool(ctx, HapticFeedbackEnabled, true))
	assert.True(t, sys.PutString(ctx, DimScreen, "yes"))

	assert.Equal(t, 60000, sys.GetInt(ctx, ScreenOffTimeout, 0))
	assert.Equal(t, int64(1<<40), sys.GetLong(ctx, "big", 0))
	assert.InDelta(t, 1.15, sys.GetFloat(ctx, FontScale, 0), 1e-9)
	assert.True(t, sys.GetBool(ctx, HapticFeedbackEnabled, false))
	assert.Equal(t, 7, sys.GetInt(ctx, DimScreen, 7), "unparsable falls back to default")
	assert.Equal(t, 3, sys.GetInt(ctx, "absent", 3))

	_, err := sys.GetIntStrict(ctx, "absent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSettingNotFound)
	var nf *SettingNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, TableSystem, nf.Table)
	assert.Equal(t, "absent", nf.Name)
	assert.Nil(t, nf.Err)

	_, err = sys.GetLongStrict(ctx, DimScreen)
	require.ErrorAs(t, err, &nf)
	assert.Error(t, nf.Err)
	assert.ErrorIs(t, err, ErrSettingNotFound)

	_, err = sys.GetFloatStrict(ctx, DimScreen)
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestForUser(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t)

	guest := r.System.ForUser(10)
	assert.True(t, guest.PutInt(ctx, TextAutoCaps, 0))
	assert.Equal(t, 0, guest.GetInt(ctx, TextAutoCaps, 1))
	assert.Equal(t, 1, r.System.GetInt(ctx, TextAutoCaps, 1))
}

func TestResolverTable(t *testing.T) {
	r, _ := newTestResolver(t)
	for _, name := range Tables {
		tbl, ok := r.Table(name)
		require.True(t, ok)
		assert.Equal(t, name, tbl.Name())
	}
	_, ok := r.Table("bookmarks")
	assert.False(t, ok)
}

func TestLocationProviders(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t)

	assert.False(t, IsLocationProviderEnabled(ctx, r.Secure, "gps"))
	assert.True(t, SetLocationProviderEnabled(ctx, r.Secure, "gps", true))
	assert.True(t, SetLocationProviderEnabled(ctx, r.Secure, "network", true))
	assert.True(t, IsLocationProviderEnabled(ctx, r.Secure, "gps"))
	assert.True(t, IsLocationProviderEnabled(ctx, r.Secure, "network"))

	assert.True(t, SetLocationProviderEnabled(ctx, r.Secure, "gps", false))
	assert.False(t, IsLocationProviderEnabled(ctx, r.Secure, "gps"))
	assert.True(t, IsLocationProviderEnabled(ctx, r.Secure, "network"))
}

func TestMergeLocationProviders(t *testing.T) {
	tests := []struct {
		current, change, want string
	}{
		{"", "+gps", "gps"},
		{"gps", "+gps", "gps"},
		{"gps", "+network", "gps,network"},
		{"gps,network", "-gps", "network"},
		{"network", "-gps", "network"},
		{"gps", "network,passive", "network,passive"},
		{"gps", "+", "gps"},
		{"gps", "+a,b", "gps"},
		{"gps", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MergeLocationProviders(tt.current, tt.change), "%q %q", tt.current, tt.change)
	}
}

func TestDelimitedContains(t *testing.T) {
	assert.True(t, delimitedContains("gps,network", ',', "network"))
	assert.False(t, delimitedContains("gps,network", ',', "net"))
	assert.False(t, delimitedContains("", ',', "gps"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "GET_system", GetMethod(TableSystem))
	assert.Equal(t, "PUT_secure", PutMethod(TableSecure))
	assert.Equal(t, "sys.settings_global_version", VersionProperty(TableGlobal))
	assert.True(t, ValidTable("global"))
	assert.False(t, ValidTable("gservices"))
}
