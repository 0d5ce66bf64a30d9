package types

import "encoding/json"

// Step is one transition taken while training
type Step struct {
	State    int
	Action   int
	Reward   float64
	Next     int
	Terminal bool
}

// Trace of an episode as a list of steps
type Trace struct {
	steps []Step
	// Truncated is set when the episode hit the horizon before the goal
	Truncated bool
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]Step, 0),
	}
}

func (t *Trace) Append(step Step) {
	t.steps = append(t.steps, step)
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Last() (Step, bool) {
	if len(t.steps) < 1 {
		return Step{}, false
	}
	return t.steps[len(t.steps)-1], true
}

// Return is the undiscounted sum of the rewards of the episode
func (t *Trace) Return() float64 {
	sum := 0.0
	for _, s := range t.steps {
		sum += s.Reward
	}
	return sum
}

func (t *Trace) Steps() []Step {
	return t.steps
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"steps":     t.steps,
		"truncated": t.Truncated,
	})
}

// TrainingReport collects the traces of one training call
type TrainingReport struct {
	Goal   Goal
	Key    GoalKey
	Traces []*Trace
}

func NewTrainingReport(goal Goal, key GoalKey) *TrainingReport {
	return &TrainingReport{
		Goal:   goal,
		Key:    key,
		Traces: make([]*Trace, 0),
	}
}

func (r *TrainingReport) Append(t *Trace) {
	r.Traces = append(r.Traces, t)
}

// Steps returns the number of steps of every episode
func (r *TrainingReport) Steps() []int {
	out := make([]int, len(r.Traces))
	for i, t := range r.Traces {
		out[i] = t.Len()
	}
	return out
}

// Returns returns the return of every episode
func (r *TrainingReport) Returns() []float64 {
	out := make([]float64, len(r.Traces))
	for i, t := range r.Traces {
		out[i] = t.Return()
	}
	return out
}
