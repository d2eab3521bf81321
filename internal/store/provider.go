package store

import (
	"context"
	"fmt"
	"strings"

	"textinput/internal/settings"
)

var _ settings.Provider = (*Store)(nil)

// Call implements settings.Provider for the GET_ and PUT_ methods.
func (s *Store) Call(ctx context.Context, req settings.CallRequest) (settings.CallResult, error) {
	switch {
	case strings.HasPrefix(req.Method, settings.MethodGetPrefix):
		table := strings.TrimPrefix(req.Method, settings.MethodGetPrefix)
		if settings.ValidTable(table) {
			v, ok, err := s.Get(ctx, table, req.Name, req.User)
			return settings.CallResult{Value: v, Found: ok}, err
		}
	case strings.HasPrefix(req.Method, settings.MethodPutPrefix):
		table := strings.TrimPrefix(req.Method, settings.MethodPutPrefix)
		if settings.ValidTable(table) {
			_, err := s.Put(ctx, table, req.Name, req.Value, req.User)
			return settings.CallResult{}, err
		}
	}
	return settings.CallResult{}, fmt.Errorf("%w: %s", settings.ErrUnsupported, req.Method)
}

// Query implements settings.Provider.
func (s *Store) Query(ctx context.Context, table, name string, user int) (string, bool, error) {
	return s.Get(ctx, table, name, user)
}

// Insert implements settings.Provider.
func (s *Store) Insert(ctx context.Context, table, name, value string, user int) error {
	_, err := s.Put(ctx, table, name, value, user)
	return err
}
