package types

import (
	"context"
	"fmt"
)

// Observation is a snapshot of the environment, decoded into the state space
type Observation struct {
	Index int
	State State
}

// Environment is the capability the learning engine drives.
// Concrete environments (simulated or physical) implement it.
type Environment interface {
	StateSpace() *StateSpace
	ActionSpace() *ActionSpace
	// Indices of the states compatible with a (partial) semantic description
	CompatibleStates([]interface{}) []int
	// Indices of the actions that can be taken from the given state
	ApplicableActions(int) ([]int, error)
	// Samples the world and decodes it into the state space
	ReadCurrentState(context.Context) (Observation, error)
	// Executes the action, the resulting state has to be read separately
	PerformAction(context.Context, int) error
}

// Resetter is implemented by environments that can be put back into a
// starting configuration; the engine calls it at the beginning of every episode
type Resetter interface {
	Reset(context.Context) error
}

// Spaces implements the part of Environment that only depends on the
// state and action spaces. Concrete environments embed it.
type Spaces struct {
	states  *StateSpace
	actions *ActionSpace
}

func NewSpaces(states *StateSpace, actions *ActionSpace) *Spaces {
	return &Spaces{
		states:  states,
		actions: actions,
	}
}

func (s *Spaces) StateSpace() *StateSpace {
	return s.states
}

func (s *Spaces) ActionSpace() *ActionSpace {
	return s.actions
}

func (s *Spaces) CompatibleStates(description []interface{}) []int {
	return s.states.CompatibleStates(description)
}

func (s *Spaces) ApplicableActions(state int) ([]int, error) {
	st, ok := s.states.State(state)
	if !ok {
		return nil, fmt.Errorf("%w: %w: index %d", ErrConfiguration, ErrUnknownState, state)
	}
	actions := s.actions.Applicable(st)
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: %w for state %d %v", ErrConfiguration, ErrNoApplicableActions, state, s.states.Decode(st))
	}
	return actions, nil
}

// Observe turns a decoded tuple into an observation, failing when the
// tuple is not a member of the state space
func (s *Spaces) Observe(state State) (Observation, error) {
	i := s.states.IndexOf(state)
	if i == UnknownState {
		return Observation{Index: UnknownState, State: state}, fmt.Errorf("%w: %w: %v", ErrConfiguration, ErrUnknownState, state)
	}
	return Observation{Index: i, State: state.Copy()}, nil
}
