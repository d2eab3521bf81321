package settings

import (
	"context"
	"fmt"
	"sync"

	"textinput/internal/sysprop"
)

// MemProvider is an in-memory Provider. It bumps the table version
// property on every write, like the daemon does, and is used when the
// daemon is not reachable and in tests.
type MemProvider struct {
	props sysprop.Store

	mu     sync.RWMutex
	values map[string]map[string]string // table/user → name → value
}

// NewMemProvider returns an empty provider writing versions to props.
func NewMemProvider(props sysprop.Store) *MemProvider {
	return &MemProvider{props: props, values: make(map[string]map[string]string)}
}

func memKey(table string, user int) string {
	if user == UserCurrent {
		user = UserOwner
	}
	return fmt.Sprintf("%s/%d", table, user)
}

// Call implements Provider.
func (m *MemProvider) Call(ctx context.Context, req CallRequest) (CallResult, error) {
	if err := ctx.Err(); err != nil {
		return CallResult{}, err
	}
	for _, t := range Tables {
		switch req.Method {
		case GetMethod(t):
			v, ok, err := m.Query(ctx, t, req.Name, req.User)
			return CallResult{Value: v, Found: ok}, err
		case PutMethod(t):
			return CallResult{}, m.Insert(ctx, t, req.Name, req.Value, req.User)
		}
	}
	return CallResult{}, fmt.Errorf("%w: %s", ErrUnsupported, req.Method)
}

// Query implements Provider.
func (m *MemProvider) Query(ctx context.Context, table, name string, user int) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[memKey(table, user)][name]
	return v, ok, nil
}

// Insert implements Provider.
func (m *MemProvider) Insert(ctx context.Context, table, name, value string, user int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidTable(table) {
		return fmt.Errorf("settings: unknown table %q", table)
	}
	m.mu.Lock()
	k := memKey(table, user)
	if m.values[k] == nil {
		m.values[k] = make(map[string]string)
	}
	if table == TableSecure && name == LocationProvidersAllowed {
		value = MergeLocationProviders(m.values[k][name], value)
	}
	m.values[k][name] = value
	m.mu.Unlock()

	_, err := m.props.Increment(VersionProperty(table))
	return err
}
