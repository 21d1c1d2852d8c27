package filestack

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOption indicates an option required by the action was absent or empty
	ErrMissingOption = errors.New("filestack: missing required option")

	// ErrUnknownAction indicates an action name that is not one of Actions
	ErrUnknownAction = errors.New("filestack: unknown action")
)

// OptionError reports a problem with a single option of a CreateURL call.
type OptionError struct {
	Action Action
	Key    string
	Err    error
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("create %s url: option %q: %v", e.Action, e.Key, e.Err)
}

func (e *OptionError) Unwrap() error {
	return e.Err
}
