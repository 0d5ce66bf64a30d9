package lab

import (
	"sort"

	"github.com/zeu5/lab-rl/types"
)

const (
	Z1Level  = "z1Level"
	Z2Level  = "z2Level"
	Z1Light  = "z1Light"
	Z2Light  = "z2Light"
	Z1Blinds = "z1Blinds"
	Z2Blinds = "z2Blinds"
	Sunshine = "sunshine"

	was = "http://example.org/was#"

	// StatusType is the semantic type of the property exposing the lab status
	StatusType = "https://example.org/was#Status"
	// ResetType is the semantic type of the (optional) action resetting the lab
	ResetType = was + "Reset"

	SetZ1Light  = was + "SetZ1Light"
	SetZ2Light  = was + "SetZ2Light"
	SetZ1Blinds = was + "SetZ1Blinds"
	SetZ2Blinds = was + "SetZ2Blinds"
)

var (
	// DefaultLightThresholds are the lux breakpoints of the zone light levels
	DefaultLightThresholds = []float64{50, 100, 300}
	// DefaultSunshineThresholds are the lux breakpoints of the sunshine levels
	DefaultSunshineThresholds = []float64{50, 200, 700}
)

// StatusField maps a state axis to the semantic type of the status field it is read from
type StatusField struct {
	Axis string
	Type string
}

// StatusFields in state axis order
var StatusFields = []StatusField{
	{Axis: Z1Level, Type: was + "Z1Level"},
	{Axis: Z2Level, Type: was + "Z2Level"},
	{Axis: Z1Light, Type: was + "Z1Light"},
	{Axis: Z2Light, Type: was + "Z2Light"},
	{Axis: Z1Blinds, Type: was + "Z1Blinds"},
	{Axis: Z2Blinds, Type: was + "Z2Blinds"},
	{Axis: Sunshine, Type: was + "Sunshine"},
}

// Affordance is an action affordance the lab learns to use
type Affordance struct {
	Type string
	Axis string
	Kind types.ActionKind
}

// Affordances in the order their actions are indexed
var Affordances = []Affordance{
	{Type: SetZ1Light, Axis: Z1Light, Kind: types.KindLight},
	{Type: SetZ2Light, Axis: Z2Light, Kind: types.KindLight},
	{Type: SetZ1Blinds, Axis: Z1Blinds, Kind: types.KindBlinds},
	{Type: SetZ2Blinds, Axis: Z2Blinds, Kind: types.KindBlinds},
}

// Discretizer maps a lux reading to a level: the number of thresholds not above it
type Discretizer struct {
	thresholds []float64
}

func NewDiscretizer(thresholds []float64) Discretizer {
	t := make([]float64, len(thresholds))
	copy(t, thresholds)
	sort.Float64s(t)
	return Discretizer{thresholds: t}
}

func (d Discretizer) Level(lux float64) int {
	level := 0
	for _, t := range d.thresholds {
		if lux >= t {
			level++
		}
	}
	return level
}

func (d Discretizer) Levels() int {
	return len(d.thresholds) + 1
}

// Axes of the lab state space, in the order of StatusFields
func Axes(light, sunshine Discretizer) []types.Axis {
	return []types.Axis{
		types.LevelAxis(Z1Level, light.Levels()),
		types.LevelAxis(Z2Level, light.Levels()),
		types.BoolAxis(Z1Light),
		types.BoolAxis(Z2Light),
		types.BoolAxis(Z1Blinds),
		types.BoolAxis(Z2Blinds),
		types.LevelAxis(Sunshine, sunshine.Levels()),
	}
}
