package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labLikeSpace(t *testing.T) *StateSpace {
	s, err := NewStateSpace(LevelAxis("z1Level", 4), LevelAxis("z2Level", 4), BoolAxis("z1Light"), BoolAxis("z1Blinds"))
	require.NoError(t, err)
	return s
}

func TestStateSpaceSize(t *testing.T) {
	cases := [][]int{{2}, {2, 3}, {4, 4, 2, 2, 2, 2, 4}, {1, 5}}
	for _, sizes := range cases {
		axes := make([]Axis, len(sizes))
		product := 1
		for i, n := range sizes {
			axes[i] = LevelAxis("a"+string(rune('0'+i)), n)
			product *= n
		}
		s, err := NewStateSpace(axes...)
		require.NoError(t, err)
		assert.Equal(t, product, s.Len(), "sizes %v", sizes)
	}
}

func TestStateSpaceIndexBijection(t *testing.T) {
	s := labLikeSpace(t)
	seen := make(map[string]bool)
	for i := 0; i < s.Len(); i++ {
		state, ok := s.State(i)
		require.True(t, ok)
		assert.False(t, seen[state.Hash()], "state %v enumerated twice", state)
		seen[state.Hash()] = true
		assert.Equal(t, i, s.IndexOf(state))
	}
	_, ok := s.State(s.Len())
	assert.False(t, ok)
	assert.Equal(t, UnknownState, s.IndexOf(State{9, 9, 9, 9}))
	assert.Equal(t, UnknownState, s.IndexOf(State{0, 0}))
}

func TestStateSpaceOrderIsStable(t *testing.T) {
	a, err := NewStateSpace(BoolAxis("x"), LevelAxis("y", 3))
	require.NoError(t, err)
	b, err := NewStateSpace(BoolAxis("x"), LevelAxis("y", 3))
	require.NoError(t, err)
	for i := 0; i < a.Len(); i++ {
		sa, _ := a.State(i)
		sb, _ := b.State(i)
		assert.Equal(t, sa, sb)
	}
	// last axis varies fastest
	first, _ := a.State(0)
	second, _ := a.State(1)
	assert.Equal(t, State{0, 0}, first)
	assert.Equal(t, State{0, 1}, second)
}

func TestStateSpaceInvalidAxes(t *testing.T) {
	_, err := NewStateSpace()
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewStateSpace(Axis{Name: "empty"})
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewStateSpace(BoolAxis("x"), BoolAxis("x"))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestCompatibleStates(t *testing.T) {
	s := labLikeSpace(t)

	all := s.CompatibleStates(nil)
	assert.Len(t, all, s.Len())
	assert.Len(t, s.CompatibleStates([]interface{}{}), s.Len())

	prefix := s.CompatibleStates([]interface{}{3, 3})
	assert.Len(t, prefix, 4)
	for _, i := range prefix {
		state, _ := s.State(i)
		assert.Equal(t, 3, state[0])
		assert.Equal(t, 3, state[1])
	}

	exact := s.CompatibleStates([]interface{}{1, 2, true, false})
	require.Len(t, exact, 1)
	assert.Equal(t, s.IndexOf(State{1, 2, 1, 0}), exact[0])

	// json numbers
	assert.Len(t, s.CompatibleStates([]interface{}{float64(1), float64(2), true, false}), 1)

	assert.Empty(t, s.CompatibleStates([]interface{}{1, 2, true, false, 0}))
	assert.Empty(t, s.CompatibleStates([]interface{}{7}))
	// a raw key in place of a boolean is not the semantic value
	assert.Empty(t, s.CompatibleStates([]interface{}{1, 2, 1}))
}

func TestEncodeDecode(t *testing.T) {
	s := labLikeSpace(t)
	state, err := s.Encode([]interface{}{2, 0, true, true})
	require.NoError(t, err)
	assert.Equal(t, State{2, 0, 1, 1}, state)
	assert.Equal(t, []interface{}{2, 0, true, true}, s.Decode(state))

	_, err = s.Encode([]interface{}{2, 0, true})
	assert.True(t, errors.Is(err, ErrUnknownState))
	_, err = s.Encode([]interface{}{2, 0, "on", true})
	assert.True(t, errors.Is(err, ErrUnknownState))
}
