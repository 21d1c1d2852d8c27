package filestack

import (
	"fmt"
	"strings"
)

// Action selects the shape of the URL built by CreateURL.
type Action string

const (
	ActionDelete    Action = "delete"
	ActionOverwrite Action = "overwrite"
	ActionTransform Action = "transform"
	ActionUpload    Action = "upload"
)

// Actions lists every action CreateURL knows how to build.
var Actions = []Action{ActionDelete, ActionOverwrite, ActionTransform, ActionUpload}

// ParseAction converts user input into an Action. Unlike CreateURL, which degrades
// unknown actions to an empty URL, ParseAction rejects them.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionDelete, ActionOverwrite, ActionTransform, ActionUpload:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}
