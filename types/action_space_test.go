package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two axes {0,1} and {0,1,2}, one action per (axis, target value)
func twoAxisSpaces(t *testing.T) (*StateSpace, *ActionSpace) {
	states, err := NewStateSpace(LevelAxis("a", 2), LevelAxis("b", 3))
	require.NoError(t, err)
	actions, err := NewActionSpace(states, []ControllableProperty{
		{Tag: "setA", Axis: "a", Field: "a", Values: []interface{}{0, 1}},
		{Tag: "setB", Axis: "b", Field: "b", Values: []interface{}{0, 1, 2}},
	})
	require.NoError(t, err)
	return states, actions
}

func TestActionSpaceScenario(t *testing.T) {
	states, actions := twoAxisSpaces(t)
	assert.Equal(t, 6, states.Len())
	assert.Equal(t, 5, actions.Len())

	for i, a := range actions.Actions() {
		assert.Equal(t, i, a.Index)
	}

	for i := 0; i < states.Len(); i++ {
		state, _ := states.State(i)
		perAxis := map[int][]int{}
		for _, ai := range actions.Applicable(state) {
			a, _ := actions.Action(ai)
			perAxis[a.Constraint.Axis] = append(perAxis[a.Constraint.Axis], ai)
			// never offered an action that keeps the current value
			assert.NotEqual(t, state[a.Constraint.Axis], a.Payload[0])
		}
		assert.Len(t, perAxis[0], 1, "state %v", state)
		assert.Len(t, perAxis[1], 2, "state %v", state)
	}
}

func TestActionConstraintIsStrictSubset(t *testing.T) {
	states, actions := twoAxisSpaces(t)
	for _, a := range actions.Actions() {
		count := 0
		for i := 0; i < states.Len(); i++ {
			state, _ := states.State(i)
			if a.Applicable(state) {
				count++
			}
		}
		assert.Greater(t, count, 0, "action %s", a)
		assert.Less(t, count, states.Len(), "action %s", a)
	}
}

func TestBooleanActionsRequireOppositeValue(t *testing.T) {
	states, err := NewStateSpace(BoolAxis("light"), BoolAxis("blinds"))
	require.NoError(t, err)
	actions, err := NewActionSpace(states, []ControllableProperty{
		{Tag: "SetLight", Kind: KindLight, Axis: "light", Field: "light", Values: []interface{}{false, true}},
		{Tag: "SetBlinds", Kind: KindBlinds, Axis: "blinds", Field: "blinds", Values: []interface{}{false, true}},
	})
	require.NoError(t, err)
	require.Equal(t, 4, actions.Len())

	turnOn, _ := actions.Action(1)
	assert.Equal(t, true, turnOn.Payload[0])
	required, ok := turnOn.Constraint.RequiredValue()
	require.True(t, ok)
	assert.Equal(t, 0, required)
	assert.Equal(t, KindLight, turnOn.Kind)
	assert.Equal(t, []string{"light"}, turnOn.PayloadTags)

	lower, _ := actions.Action(2)
	required, _ = lower.Constraint.RequiredValue()
	assert.Equal(t, 1, required)
	assert.Equal(t, KindBlinds, lower.Kind)
}

func TestActionSpaceConfigurationErrors(t *testing.T) {
	states, err := NewStateSpace(BoolAxis("light"))
	require.NoError(t, err)

	_, err = NewActionSpace(states, nil)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewActionSpace(states, []ControllableProperty{
		{Tag: "SetHeater", Axis: "heater", Values: []interface{}{true}},
		{Tag: "SetLight", Axis: "light", Values: []interface{}{"dim"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "heater")
	assert.Contains(t, err.Error(), "dim")

	// only "turn on" exists, states with the light on have nothing to do
	_, err = NewActionSpace(states, []ControllableProperty{
		{Tag: "SetLight", Axis: "light", Values: []interface{}{true}},
	})
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.True(t, errors.Is(err, ErrNoApplicableActions))
}

func TestSpacesApplicableActions(t *testing.T) {
	states, actions := twoAxisSpaces(t)
	spaces := NewSpaces(states, actions)

	got, err := spaces.ApplicableActions(0)
	require.NoError(t, err)
	// state [0,0]: set a=1, set b=1, set b=2
	assert.Equal(t, []int{1, 3, 4}, got)

	_, err = spaces.ApplicableActions(states.Len())
	assert.True(t, errors.Is(err, ErrUnknownState))

	obs, err := spaces.Observe(State{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 5, obs.Index)

	_, err = spaces.Observe(State{2, 2})
	assert.True(t, errors.Is(err, ErrUnknownState))
	assert.True(t, errors.Is(err, ErrConfiguration))
}
