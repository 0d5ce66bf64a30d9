package policies

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeu5/lab-rl/types"
)

var errConnection = errors.New("connection refused")

// testEnv is an in-memory world where every action sets its axis to the payload value
type testEnv struct {
	*types.Spaces
	state types.State
	start types.State

	resets    int
	performed int
	// fail the n-th call to PerformAction, 0 never fails
	failOn  int
	badRead bool
}

var _ types.Environment = &testEnv{}
var _ types.Resetter = &testEnv{}

func newTestEnv(t *testing.T, start types.State, axes []types.Axis, props []types.ControllableProperty) *testEnv {
	states, err := types.NewStateSpace(axes...)
	require.NoError(t, err)
	actions, err := types.NewActionSpace(states, props)
	require.NoError(t, err)
	return &testEnv{
		Spaces: types.NewSpaces(states, actions),
		state:  start.Copy(),
		start:  start.Copy(),
	}
}

// single axis {0,1}, action 0 sets it to 0 and action 1 to 1
func newFlipEnv(t *testing.T, kind types.ActionKind) *testEnv {
	return newTestEnv(t, types.State{0},
		[]types.Axis{types.LevelAxis("x", 2)},
		[]types.ControllableProperty{{Tag: "setX", Kind: kind, Axis: "x", Field: "x", Values: []interface{}{0, 1}}},
	)
}

// axes a {0,1} and b {0,1,2}, actions: a=0, a=1, b=0, b=1, b=2
func newTwoAxisEnv(t *testing.T) *testEnv {
	return newTestEnv(t, types.State{0, 0},
		[]types.Axis{types.LevelAxis("a", 2), types.LevelAxis("b", 3)},
		[]types.ControllableProperty{
			{Tag: "setA", Axis: "a", Field: "a", Values: []interface{}{0, 1}},
			{Tag: "setB", Axis: "b", Field: "b", Values: []interface{}{0, 1, 2}},
		},
	)
}

func (e *testEnv) ReadCurrentState(_ context.Context) (types.Observation, error) {
	if e.badRead {
		return types.Observation{Index: e.StateSpace().Len()}, nil
	}
	return e.Observe(e.state)
}

func (e *testEnv) PerformAction(_ context.Context, a int) error {
	e.performed++
	if e.failOn > 0 && e.performed == e.failOn {
		return errConnection
	}
	action, ok := e.ActionSpace().Action(a)
	if !ok {
		return errors.New("no such action")
	}
	axis := action.Constraint.Axis
	key, _ := e.StateSpace().Axis(axis).KeyOf(action.Payload[0])
	e.state[axis] = key
	return nil
}

func (e *testEnv) Reset(_ context.Context) error {
	e.resets++
	e.state = e.start.Copy()
	return nil
}
