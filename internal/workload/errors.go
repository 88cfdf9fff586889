// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload

import (
	"github.com/juju/errors"
)

// ErrPebbleNotReady is returned when the workload container's Pebble
// API cannot be reached.
const ErrPebbleNotReady = errors.ConstError("pebble not ready")

// ConfigInvalidError is returned when the charm config does not allow
// the web app to be started.
type ConfigInvalidError struct {
	Msg string
}

// NewConfigInvalidError returns a ConfigInvalidError with a formatted
// message.
func NewConfigInvalidError(format string, args ...interface{}) error {
	return &ConfigInvalidError{Msg: errors.Errorf(format, args...).Error()}
}

// Error implements error.
func (e *ConfigInvalidError) Error() string {
	return e.Msg
}

// IsConfigInvalid reports whether err is, or wraps, a ConfigInvalidError.
func IsConfigInvalid(err error) bool {
	return errors.HasType[*ConfigInvalidError](err)
}
