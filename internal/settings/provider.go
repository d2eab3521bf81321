// Package settings reads and writes user preferences kept by the settings
// daemon.
//
// Preferences live in three name/value tables: system, secure and global.
// Each table is read through a NameValueCache that keeps same-user values
// in memory until the table's version property changes. Writes go straight
// to the provider.
package settings

import (
	"context"
	"errors"
	"fmt"
)

// Table names.
const (
	TableSystem = "system"
	TableSecure = "secure"
	TableGlobal = "global"
)

// Tables lists the known tables.
var Tables = []string{TableSystem, TableSecure, TableGlobal}

// ValidTable reports whether name is a known table.
func ValidTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// User handles.
const (
	// UserCurrent means the user of the calling process.
	UserCurrent = -2
	// UserOwner is the first user of the device.
	UserOwner = 0
)

// Provider method name prefixes.
const (
	MethodGetPrefix = "GET_"
	MethodPutPrefix = "PUT_"
)

// GetMethod returns the fast-path read method for table, e.g. "GET_system".
func GetMethod(table string) string { return MethodGetPrefix + table }

// PutMethod returns the write method for table, e.g. "PUT_secure".
func PutMethod(table string) string { return MethodPutPrefix + table }

// VersionProperty returns the property holding table's version counter.
func VersionProperty(table string) string {
	return fmt.Sprintf("sys.settings_%s_version", table)
}

// ErrUnsupported is returned by Provider.Call when the provider has no
// handler for the method. Readers then fall back to Query, writers to
// Insert.
var ErrUnsupported = errors.New("settings: method not supported")

// CallRequest is a fast-path provider call.
type CallRequest struct {
	Method string
	Name   string
	Value  string
	User   int
}

// CallResult is the answer to a CallRequest. Found is false when the
// setting does not exist.
type CallResult struct {
	Value string
	Found bool
}

// Provider is the remote side of the settings tables.
type Provider interface {
	// Call invokes a GET_ or PUT_ method.
	Call(ctx context.Context, req CallRequest) (CallResult, error)

	// Query reads one value through the tabular interface.
	Query(ctx context.Context, table, name string, user int) (string, bool, error)

	// Insert writes one value through the tabular interface.
	Insert(ctx context.Context, table, name, value string, user int) error
}
