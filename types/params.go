package types

import "fmt"

// LearningParams configures one training call
type LearningParams struct {
	Episodes int
	Alpha    float64 // learning rate
	Gamma    float64 // discount factor
	Epsilon  float64 // exploration probability
	Reward   float64 // reward for reaching the goal
	// Horizon bounds the steps of an episode, 0 leaves it unbounded
	Horizon int
}

func (p LearningParams) Validate() error {
	if p.Episodes < 0 {
		return fmt.Errorf("%w: episodes must not be negative, got %d", ErrInvalidParams, p.Episodes)
	}
	if p.Horizon < 0 {
		return fmt.Errorf("%w: horizon must not be negative, got %d", ErrInvalidParams, p.Horizon)
	}
	for name, v := range map[string]float64{"alpha": p.Alpha, "gamma": p.Gamma, "epsilon": p.Epsilon} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalidParams, name, v)
		}
	}
	return nil
}
