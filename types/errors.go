package types

import "errors"

var (
	// ErrConfiguration marks a fatal mismatch between the declared spaces and the environment
	ErrConfiguration = errors.New("configuration error")
	// ErrUnknownState is returned when a state is not a member of the state space
	ErrUnknownState = errors.New("unknown state")
	// ErrNoApplicableActions is returned for a state from which no action can be taken
	ErrNoApplicableActions = errors.New("no applicable actions")
	// ErrUntrainedGoal is returned when no table has been trained for a goal
	ErrUntrainedGoal = errors.New("untrained goal")
	// ErrInvalidGoal is returned for goal descriptions that do not fit the state space
	ErrInvalidGoal = errors.New("invalid goal description")
	// ErrInvalidParams is returned for learning parameters out of range
	ErrInvalidParams = errors.New("invalid learning parameters")
)
