package types

import (
	"fmt"
	"math"
)

// AxisValue pairs the raw integer key used inside states with the
// semantic value it stands for (a bool for switches, an int for levels)
type AxisValue struct {
	Key   int
	Value interface{}
}

// Matches reports whether v denotes the same semantic value.
// Numbers decoded from JSON arrive as float64, so integral floats match int levels.
func (a AxisValue) Matches(v interface{}) bool {
	switch own := a.Value.(type) {
	case bool:
		b, ok := v.(bool)
		return ok && b == own
	case int:
		n, ok := asInt(v)
		return ok && n == own
	default:
		return a.Value == v
	}
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float32:
		return asInt(float64(n))
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// Axis is one discretized dimension of the observable state
type Axis struct {
	Name   string
	Values []AxisValue
}

// BoolAxis is an axis with keys 0 (false) and 1 (true)
func BoolAxis(name string) Axis {
	return Axis{
		Name: name,
		Values: []AxisValue{
			{Key: 0, Value: false},
			{Key: 1, Value: true},
		},
	}
}

// LevelAxis is an axis whose keys are the levels 0..levels-1
func LevelAxis(name string, levels int) Axis {
	values := make([]AxisValue, levels)
	for i := 0; i < levels; i++ {
		values[i] = AxisValue{Key: i, Value: i}
	}
	return Axis{Name: name, Values: values}
}

func (a Axis) Len() int {
	return len(a.Values)
}

func (a Axis) Keys() []int {
	keys := make([]int, len(a.Values))
	for i, v := range a.Values {
		keys[i] = v.Key
	}
	return keys
}

// KeyOf returns the raw key of a semantic value
func (a Axis) KeyOf(value interface{}) (int, bool) {
	for _, v := range a.Values {
		if v.Matches(value) {
			return v.Key, true
		}
	}
	return 0, false
}

// Decode returns the semantic value of a raw key
func (a Axis) Decode(key int) (interface{}, bool) {
	for _, v := range a.Values {
		if v.Key == key {
			return v.Value, true
		}
	}
	return nil, false
}

func (a Axis) HasKey(key int) bool {
	_, ok := a.Decode(key)
	return ok
}

func (a Axis) validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: axis without a name", ErrConfiguration)
	}
	if len(a.Values) == 0 {
		return fmt.Errorf("%w: axis %s has no values", ErrConfiguration, a.Name)
	}
	seen := make(map[int]bool)
	for _, v := range a.Values {
		if seen[v.Key] {
			return fmt.Errorf("%w: axis %s declares key %d twice", ErrConfiguration, a.Name, v.Key)
		}
		seen[v.Key] = true
	}
	return nil
}
