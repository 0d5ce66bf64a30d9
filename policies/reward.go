package policies

import "github.com/zeu5/lab-rl/types"

const (
	// LightPenalty is charged for every light toggle
	LightPenalty = -50.0
	// BlindsPenalty is charged for every blinds adjustment
	BlindsPenalty = -1.0
)

// Penalty is the shaping term of an action, by kind
func Penalty(kind types.ActionKind) float64 {
	switch kind {
	case types.KindLight:
		return LightPenalty
	case types.KindBlinds:
		return BlindsPenalty
	default:
		return 0
	}
}

// Reward of a transition: the goal reward when the next state is terminal plus the shaping penalty
func Reward(action *types.Action, terminal bool, goalReward float64) float64 {
	r := 0.0
	if terminal {
		r = goalReward
	}
	return r + Penalty(action.Kind)
}
