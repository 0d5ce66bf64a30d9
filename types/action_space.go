package types

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ControllableProperty is a property of the environment that actions can set.
// Every declared value yields one action.
type ControllableProperty struct {
	// Tag is the semantic identifier of the property (e.g. the affordance type)
	Tag  string
	Kind ActionKind
	// Axis is the name of the state axis that reflects the property
	Axis string
	// Field is the payload field name used to set the property
	Field  string
	Values []interface{}
	Handle interface{}
}

// ActionSpace holds the actions with contiguous indices starting at 0
type ActionSpace struct {
	actions []*Action
}

// NewActionSpace creates one action per (property, value), in the given order,
// and binds each action to the axis of its property: the action is applicable
// only while the axis reads a value different from the one the action sets.
func NewActionSpace(space *StateSpace, props []ControllableProperty) (*ActionSpace, error) {
	a := &ActionSpace{actions: make([]*Action, 0)}

	var result *multierror.Error
	for _, p := range props {
		axisIndex, ok := space.AxisIndex(p.Axis)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("property %s refers to unknown axis %s", p.Tag, p.Axis))
			continue
		}
		axis := space.Axis(axisIndex)
		for _, v := range p.Values {
			target, ok := axis.KeyOf(v)
			if !ok {
				result = multierror.Append(result, fmt.Errorf("property %s: value %v is not on axis %s", p.Tag, v, p.Axis))
				continue
			}
			allowed := make([]int, 0, axis.Len()-1)
			for _, k := range axis.Keys() {
				if k != target {
					allowed = append(allowed, k)
				}
			}
			a.actions = append(a.actions, &Action{
				Index:       len(a.actions),
				Tag:         p.Tag,
				Kind:        p.Kind,
				PayloadTags: []string{p.Field},
				Payload:     []interface{}{v},
				Handle:      p.Handle,
				Constraint:  Constraint{Axis: axisIndex, Allowed: allowed},
			})
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	if len(a.actions) == 0 {
		return nil, fmt.Errorf("%w: no controllable property produced an action", ErrConfiguration)
	}

	for i := 0; i < space.Len(); i++ {
		state, _ := space.State(i)
		if len(a.Applicable(state)) == 0 {
			return nil, fmt.Errorf("%w: %w for state %d %v", ErrConfiguration, ErrNoApplicableActions, i, space.Decode(state))
		}
	}
	return a, nil
}

func (a *ActionSpace) Len() int {
	return len(a.actions)
}

func (a *ActionSpace) Action(i int) (*Action, bool) {
	if i < 0 || i >= len(a.actions) {
		return nil, false
	}
	return a.actions[i], true
}

func (a *ActionSpace) Actions() []*Action {
	return a.actions
}

// Applicable returns the indices of the actions whose constraint matches the state, ascending
func (a *ActionSpace) Applicable(s State) []int {
	out := make([]int, 0)
	for _, action := range a.actions {
		if action.Applicable(s) {
			out = append(out, action.Index)
		}
	}
	return out
}
