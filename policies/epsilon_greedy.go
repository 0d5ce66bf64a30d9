package policies

import (
	"golang.org/x/exp/rand"
)

// EpsilonGreedy picks a uniformly random action with probability epsilon
// and the highest valued one otherwise
type EpsilonGreedy struct {
	rand *rand.Rand
}

func NewEpsilonGreedy(src rand.Source) *EpsilonGreedy {
	return &EpsilonGreedy{
		rand: rand.New(src),
	}
}

// NextAction selects one of the applicable actions of the state.
// The second return value is false when there is nothing to choose from.
func (e *EpsilonGreedy) NextAction(table *QTable, state int, actions []int, epsilon float64) (int, bool) {
	if len(actions) == 0 {
		return 0, false
	}
	if e.rand.Float64() < epsilon {
		return actions[e.rand.Intn(len(actions))], true
	}
	a, _, ok := table.MaxAmong(state, actions)
	return a, ok
}
