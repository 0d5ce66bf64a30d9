package types

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownState is the index returned for tuples outside the state space
const UnknownState = -1

// State holds one raw axis key per axis, in axis order
type State []int

// Hash is a deterministic string form of the state, used as map key
func (s State) Hash() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = strconv.Itoa(k)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s State) Copy() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// StateSpace is the Cartesian product of the axis value sets.
// States are enumerated in odometer order, the last axis varying fastest,
// and the position in that enumeration is the state index.
type StateSpace struct {
	axes   []Axis
	states []State
	index  map[string]int
}

// NewStateSpace enumerates every combination of axis values
func NewStateSpace(axes ...Axis) (*StateSpace, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("%w: state space needs at least one axis", ErrConfiguration)
	}
	names := make(map[string]bool)
	for _, a := range axes {
		if err := a.validate(); err != nil {
			return nil, err
		}
		if names[a.Name] {
			return nil, fmt.Errorf("%w: duplicate axis %s", ErrConfiguration, a.Name)
		}
		names[a.Name] = true
	}

	size := 1
	for _, a := range axes {
		size *= a.Len()
	}

	s := &StateSpace{
		axes:   axes,
		states: make([]State, 0, size),
		index:  make(map[string]int, size),
	}

	// odometer over value positions
	pos := make([]int, len(axes))
	for {
		state := make(State, len(axes))
		for i, p := range pos {
			state[i] = axes[i].Values[p].Key
		}
		s.index[state.Hash()] = len(s.states)
		s.states = append(s.states, state)

		i := len(axes) - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < axes[i].Len() {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return s, nil
}

func (s *StateSpace) Len() int {
	return len(s.states)
}

func (s *StateSpace) Axes() []Axis {
	return s.axes
}

func (s *StateSpace) Axis(i int) Axis {
	return s.axes[i]
}

// AxisIndex looks up an axis position by name
func (s *StateSpace) AxisIndex(name string) (int, bool) {
	for i, a := range s.axes {
		if a.Name == name {
			return i, true
		}
	}
	return 0, false
}

// State returns a copy of the state at index i
func (s *StateSpace) State(i int) (State, bool) {
	if i < 0 || i >= len(s.states) {
		return nil, false
	}
	return s.states[i].Copy(), true
}

// IndexOf returns the index of the state, or UnknownState
func (s *StateSpace) IndexOf(state State) int {
	if len(state) != len(s.axes) {
		return UnknownState
	}
	if i, ok := s.index[state.Hash()]; ok {
		return i
	}
	return UnknownState
}

// Decode maps raw keys to their semantic values
func (s *StateSpace) Decode(state State) []interface{} {
	out := make([]interface{}, len(state))
	for i, k := range state {
		if i >= len(s.axes) {
			break
		}
		out[i], _ = s.axes[i].Decode(k)
	}
	return out
}

// Encode maps a full semantic tuple to its raw state
func (s *StateSpace) Encode(description []interface{}) (State, error) {
	if len(description) != len(s.axes) {
		return nil, fmt.Errorf("%w: description has %d values, state space has %d axes", ErrUnknownState, len(description), len(s.axes))
	}
	state := make(State, len(description))
	for i, v := range description {
		k, ok := s.axes[i].KeyOf(v)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a value of axis %s", ErrUnknownState, v, s.axes[i].Name)
		}
		state[i] = k
	}
	return state, nil
}

// CompatibleStates returns the indices of every state whose decoded tuple
// starts with the given description. An empty description matches everything.
func (s *StateSpace) CompatibleStates(description []interface{}) []int {
	out := make([]int, 0)
	if len(description) > len(s.axes) {
		return out
	}
	// resolve the description once against the axes, then compare raw keys
	keys := make([]int, len(description))
	for i, v := range description {
		k, ok := s.axes[i].KeyOf(v)
		if !ok {
			return out
		}
		keys[i] = k
	}
	for idx, state := range s.states {
		match := true
		for i, k := range keys {
			if state[i] != k {
				match = false
				break
			}
		}
		if match {
			out = append(out, idx)
		}
	}
	return out
}
