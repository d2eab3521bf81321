package settings

import (
	"errors"
	"fmt"
)

// ErrSettingNotFound matches every *SettingNotFoundError with errors.Is.
var ErrSettingNotFound = errors.New("setting not found")

// SettingNotFoundError is returned by the strict typed getters when a
// setting is missing or does not parse.
type SettingNotFoundError struct {
	Table string
	Name  string
	// Err is the parse error, nil when the setting is missing.
	Err error
}

func (e *SettingNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("settings: %s/%s: %v", e.Table, e.Name, e.Err)
	}
	return fmt.Sprintf("settings: %s/%s: %v", e.Table, e.Name, ErrSettingNotFound)
}

// Is makes errors.Is(err, ErrSettingNotFound) true.
func (e *SettingNotFoundError) Is(target error) bool {
	return target == ErrSettingNotFound
}

func (e *SettingNotFoundError) Unwrap() error {
	return e.Err
}
