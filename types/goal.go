package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Goal is a partial desired state: raw keys for a prefix of the axes
type Goal []int

// GoalKey identifies the table trained for a goal
type GoalKey uint64

// Reached reports whether the state matches the goal on every goal axis
func (g Goal) Reached(s State) bool {
	if len(g) > len(s) {
		return false
	}
	for i, v := range g {
		if s[i] != v {
			return false
		}
	}
	return true
}

func (g Goal) Validate(space *StateSpace) error {
	if len(g) > len(space.Axes()) {
		return fmt.Errorf("%w: %d values for %d axes", ErrInvalidGoal, len(g), len(space.Axes()))
	}
	for i, v := range g {
		axis := space.Axis(i)
		if !axis.HasKey(v) {
			return fmt.Errorf("%w: %d is not a key of axis %s", ErrInvalidGoal, v, axis.Name)
		}
	}
	return nil
}

// Key encodes the goal positionally: for each goal axis the digit is the
// position of the key on the axis plus one, in base |axis|+1. The base is
// larger than any digit of its axis and the offset keeps goals of different
// length apart, so the key is collision free for valid goals.
func (g Goal) Key(space *StateSpace) (GoalKey, error) {
	if err := g.Validate(space); err != nil {
		return 0, err
	}
	key := uint64(0)
	weight := uint64(1)
	for i, v := range g {
		axis := space.Axis(i)
		digit := uint64(0)
		for p, av := range axis.Values {
			if av.Key == v {
				digit = uint64(p) + 1
				break
			}
		}
		key += digit * weight
		weight *= uint64(axis.Len() + 1)
	}
	return GoalKey(key), nil
}

func (g Goal) String() string {
	parts := make([]string, len(g))
	for i, v := range g {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseGoal reads a comma separated list of keys, e.g. "2,3"
func ParseGoal(s string) (Goal, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return Goal{}, nil
	}
	parts := strings.Split(s, ",")
	g := make(Goal, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidGoal, err)
		}
		g[i] = v
	}
	return g, nil
}
