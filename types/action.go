package types

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// ActionKind tags what an action manipulates; the engine shapes rewards by kind
type ActionKind int

const (
	KindOther ActionKind = iota
	KindLight
	KindBlinds
)

func (k ActionKind) String() string {
	switch k {
	case KindLight:
		return "light"
	case KindBlinds:
		return "blinds"
	default:
		return "other"
	}
}

// Constraint restricts the states an action may be taken from:
// the state's key on Axis has to be one of Allowed
type Constraint struct {
	Axis    int
	Allowed []int
}

func (c Constraint) Matches(s State) bool {
	if c.Axis < 0 || c.Axis >= len(s) {
		return false
	}
	return slices.Contains(c.Allowed, s[c.Axis])
}

// RequiredValue is the single key the constraint asks for, when there is exactly one
func (c Constraint) RequiredValue() (int, bool) {
	if len(c.Allowed) != 1 {
		return 0, false
	}
	return c.Allowed[0], true
}

// Action is a discrete controllable operation
type Action struct {
	Index       int
	Tag         string
	Kind        ActionKind
	PayloadTags []string
	Payload     []interface{}
	// Handle is opaque to the engine, environments use it to execute the action
	Handle     interface{}
	Constraint Constraint
}

func (a *Action) Applicable(s State) bool {
	return a.Constraint.Matches(s)
}

func (a *Action) String() string {
	return fmt.Sprintf("Action Tag: %s, Payload Tags: %v, Payload: %v", a.Tag, a.PayloadTags, a.Payload)
}
