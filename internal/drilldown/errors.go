package drilldown

import (
	"errors"
	"fmt"
)

// ErrInvalidSelection is returned for any transition whose value is not in
// the domain offered by the current state. The state is never changed when
// it is returned.
var ErrInvalidSelection = errors.New("invalid selection")

// SelectionError carries the rejected value and the level it was tried at.
type SelectionError struct {
	Level  Level
	Value  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %q at %s level: %s", ErrInvalidSelection, e.Value, e.Level, e.Reason)
}

func (e *SelectionError) Unwrap() error {
	return ErrInvalidSelection
}

func rejected(level Level, value, reason string) error {
	return &SelectionError{Level: level, Value: value, Reason: reason}
}
