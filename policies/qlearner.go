package policies

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zeu5/lab-rl/types"
	"golang.org/x/exp/rand"
)

// QLearner trains one QTable per goal against an environment and
// extracts greedy actions from the trained tables
type QLearner struct {
	env      types.Environment
	selector *EpsilonGreedy
	logger   types.Logger
	// used when the learning parameters do not bound the episodes
	horizon int

	lock   *sync.RWMutex
	tables map[types.GoalKey]*QTable
	goals  map[types.GoalKey]types.Goal
}

var _ types.Trainer = &QLearner{}

type Option func(*QLearner)

func WithLogger(logger types.Logger) Option {
	return func(l *QLearner) {
		l.logger = logger
	}
}

// WithSeed makes action selection reproducible
func WithSeed(seed uint64) Option {
	return WithSource(rand.NewSource(seed))
}

func WithSource(src rand.Source) Option {
	return func(l *QLearner) {
		l.selector = NewEpsilonGreedy(src)
	}
}

// WithHorizon bounds every episode to the given number of steps, 0 leaves them unbounded
func WithHorizon(horizon int) Option {
	return func(l *QLearner) {
		l.horizon = horizon
	}
}

func NewQLearner(env types.Environment, opts ...Option) *QLearner {
	l := &QLearner{
		env:    env,
		logger: types.NewNullLogger(),
		lock:   new(sync.RWMutex),
		tables: make(map[types.GoalKey]*QTable),
		goals:  make(map[types.GoalKey]types.Goal),
	}
	for _, o := range opts {
		o(l)
	}
	if l.selector == nil {
		l.selector = NewEpsilonGreedy(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return l
}

// Train runs the given number of episodes toward the goal on a fresh table,
// which then replaces any table previously trained for the same goal.
// When the environment fails mid training the update of the failing step is
// dropped, the table is stored as it stands and the error is returned.
func (l *QLearner) Train(ctx context.Context, goal types.Goal, params types.LearningParams) (*types.TrainingReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	space := l.env.StateSpace()
	key, err := goal.Key(space)
	if err != nil {
		return nil, err
	}
	horizon := params.Horizon
	if horizon == 0 {
		horizon = l.horizon
	}

	table := NewQTable(space.Len(), l.env.ActionSpace().Len())
	report := types.NewTrainingReport(goal, key)
	defer l.store(key, goal, table)

	l.logger.Infof("training goal %s (key %d) for %d episodes", goal, key, params.Episodes)
	for i := 0; i < params.Episodes; i++ {
		trace, err := l.runEpisode(ctx, table, goal, params, horizon)
		report.Append(trace)
		if err != nil {
			l.logger.Errorf("episode %d for goal %s failed: %s", i+1, goal, err)
			return report, err
		}
		l.logger.Infof("goal %s episode %d/%d: %d steps, return %.2f", goal, i+1, params.Episodes, trace.Len(), trace.Return())
		if types.IsDebugLevel(l.logger) {
			l.logger.Debugf("goal %s Q table after episode %d:\n%s", goal, i+1, table)
		}
	}
	return report, nil
}

func (l *QLearner) runEpisode(ctx context.Context, table *QTable, goal types.Goal, params types.LearningParams, horizon int) (*types.Trace, error) {
	trace := types.NewTrace()
	if r, ok := l.env.(types.Resetter); ok {
		if err := r.Reset(ctx); err != nil {
			return trace, err
		}
	}

	cur, err := l.observe(ctx)
	if err != nil {
		return trace, err
	}
	terminal := goal.Reached(cur.State)
	actionSpace := l.env.ActionSpace()

	for !terminal {
		if horizon > 0 && trace.Len() >= horizon {
			trace.Truncated = true
			break
		}
		select {
		case <-ctx.Done():
			return trace, ctx.Err()
		default:
		}

		actions, err := l.env.ApplicableActions(cur.Index)
		if err != nil {
			return trace, err
		}
		a, ok := l.selector.NextAction(table, cur.Index, actions, params.Epsilon)
		if !ok {
			return trace, fmt.Errorf("%w: %w for state %d", types.ErrConfiguration, types.ErrNoApplicableActions, cur.Index)
		}
		action, _ := actionSpace.Action(a)

		if err := l.env.PerformAction(ctx, a); err != nil {
			return trace, err
		}
		next, err := l.observe(ctx)
		if err != nil {
			return trace, err
		}
		terminal = goal.Reached(next.State)
		reward := Reward(action, terminal, params.Reward)

		nextActions, err := l.env.ApplicableActions(next.Index)
		if err != nil {
			return trace, err
		}
		_, maxNext, ok := table.MaxAmong(next.Index, nextActions)
		if !ok {
			return trace, fmt.Errorf("%w: %w for state %d", types.ErrConfiguration, types.ErrNoApplicableActions, next.Index)
		}

		val := table.Get(cur.Index, a)
		table.Set(cur.Index, a, val+params.Alpha*(reward+params.Gamma*maxNext-val))

		trace.Append(types.Step{
			State:    cur.Index,
			Action:   a,
			Reward:   reward,
			Next:     next.Index,
			Terminal: terminal,
		})
		if types.IsDebugLevel(l.logger) {
			l.logger.Debugf("state %d, action %s, next %d, reward %.1f, Q %.3f", cur.Index, action.Tag, next.Index, reward, table.Get(cur.Index, a))
		}
		cur = next
	}
	return trace, nil
}

// observe reads the current state and checks it is a member of the state space
func (l *QLearner) observe(ctx context.Context) (types.Observation, error) {
	obs, err := l.env.ReadCurrentState(ctx)
	if err != nil {
		return obs, err
	}
	state, ok := l.env.StateSpace().State(obs.Index)
	if !ok {
		return obs, fmt.Errorf("%w: %w: index %d", types.ErrConfiguration, types.ErrUnknownState, obs.Index)
	}
	obs.State = state
	return obs, nil
}

func (l *QLearner) store(key types.GoalKey, goal types.Goal, table *QTable) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.tables[key] = table
	l.goals[key] = goal
}

func (l *QLearner) table(goal types.Goal) (*QTable, error) {
	key, err := goal.Key(l.env.StateSpace())
	if err != nil {
		return nil, err
	}
	l.lock.RLock()
	defer l.lock.RUnlock()
	table, ok := l.tables[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUntrainedGoal, goal)
	}
	return table, nil
}

// BestAction returns the highest valued applicable action of the state
// described by current, according to the table trained for goal.
// The description has to resolve to exactly one state.
func (l *QLearner) BestAction(goal types.Goal, current []interface{}) (*types.Action, error) {
	table, err := l.table(goal)
	if err != nil {
		return nil, err
	}
	candidates := l.env.CompatibleStates(current)
	if len(candidates) != 1 {
		return nil, fmt.Errorf("%w: %v matches %d states", types.ErrUnknownState, current, len(candidates))
	}
	state := candidates[0]
	actions, err := l.env.ApplicableActions(state)
	if err != nil {
		return nil, err
	}
	a, _, ok := table.MaxAmong(state, actions)
	if !ok {
		return nil, fmt.Errorf("%w: %w for state %d", types.ErrConfiguration, types.ErrNoApplicableActions, state)
	}
	action, _ := l.env.ActionSpace().Action(a)
	return action, nil
}

// CurrentState reads a fresh snapshot of the environment and decodes it
func (l *QLearner) CurrentState(ctx context.Context) (types.Observation, []interface{}, error) {
	obs, err := l.observe(ctx)
	if err != nil {
		return obs, nil, err
	}
	return obs, l.env.StateSpace().Decode(obs.State), nil
}

// Table returns a copy of the table trained for the goal
func (l *QLearner) Table(goal types.Goal) (*QTable, bool) {
	table, err := l.table(goal)
	if err != nil {
		return nil, false
	}
	return table.Clone(), true
}

// Export is Table with an error for the caller to report
func (l *QLearner) Export(goal types.Goal) (*QTable, error) {
	table, err := l.table(goal)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// Import installs a table for the goal, replacing any trained one
func (l *QLearner) Import(goal types.Goal, table *QTable) error {
	space := l.env.StateSpace()
	key, err := goal.Key(space)
	if err != nil {
		return err
	}
	r, c := table.Dims()
	if r != space.Len() || c != l.env.ActionSpace().Len() {
		return fmt.Errorf("%w: table is %dx%d, expected %dx%d", types.ErrConfiguration, r, c, space.Len(), l.env.ActionSpace().Len())
	}
	l.store(key, goal, table.Clone())
	return nil
}

// Goals lists the goals that have a table, ordered by key
func (l *QLearner) Goals() []types.Goal {
	l.lock.RLock()
	defer l.lock.RUnlock()
	keys := make([]types.GoalKey, 0, len(l.goals))
	for k := range l.goals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]types.Goal, len(keys))
	for i, k := range keys {
		out[i] = l.goals[k]
	}
	return out
}
