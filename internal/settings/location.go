package settings

import (
	"context"
	"strings"
)

// IsLocationProviderEnabled reports whether provider is in the allowed
// location providers list.
func IsLocationProviderEnabled(ctx context.Context, secure *Table, provider string) bool {
	allowed, _ := secure.GetString(ctx, LocationProvidersAllowed)
	return delimitedContains(allowed, ',', provider)
}

// SetLocationProviderEnabled asks the provider to add or remove one
// location provider. The change is sent as "+name" or "-name" and merged
// by the provider, so concurrent writers do not overwrite each other's
// lists.
func SetLocationProviderEnabled(ctx context.Context, secure *Table, provider string, enabled bool) bool {
	if enabled {
		provider = "+" + provider
	} else {
		provider = "-" + provider
	}
	return secure.PutString(ctx, LocationProvidersAllowed, provider)
}

// MergeLocationProviders applies a "+name" or "-name" change to a comma
// separated list. Any other value replaces the list.
func MergeLocationProviders(current, change string) string {
	if change == "" || (change[0] != '+' && change[0] != '-') {
		return change
	}
	name := change[1:]
	if name == "" || strings.ContainsRune(name, ',') {
		return current
	}

	var out []string
	for _, p := range strings.Split(current, ",") {
		if p != "" && p != name {
			out = append(out, p)
		}
	}
	if change[0] == '+' {
		out = append(out, name)
	}
	return strings.Join(out, ",")
}

// delimitedContains reports whether item is one of the delim separated
// entries of list.
func delimitedContains(list string, delim rune, item string) bool {
	if list == "" || item == "" {
		return false
	}
	for _, p := range strings.Split(list, string(delim)) {
		if p == item {
			return true
		}
	}
	return false
}
