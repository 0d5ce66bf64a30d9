package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/lab-rl/policies"
	"github.com/zeu5/lab-rl/types"
)

func newTestStore(t *testing.T) (*TableStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	s := NewTableStore(&redis.Options{Addr: mr.Addr()}, "test")
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestSaveLoad(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	table := policies.NewQTable(6, 5)
	table.Set(2, 4, 3.25)
	require.NoError(t, s.Save(ctx, types.Goal{1, 2}, table))
	assert.True(t, mr.Exists("test:table:[1,2]"))

	loaded, err := s.Load(ctx, types.Goal{1, 2})
	require.NoError(t, err)
	r, c := loaded.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 5, c)
	assert.Equal(t, 3.25, loaded.Get(2, 4))

	_, err = s.Load(ctx, types.Goal{0})
	assert.True(t, errors.Is(err, types.ErrUntrainedGoal))
}

func TestGoalsAndDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, g := range []types.Goal{{2, 3}, {1}, {2, 3}} {
		require.NoError(t, s.Save(ctx, g, policies.NewQTable(2, 2)))
	}
	goals, err := s.Goals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Goal{{1}, {2, 3}}, goals)

	require.NoError(t, s.Delete(ctx, types.Goal{1}))
	goals, err = s.Goals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Goal{{2, 3}}, goals)
	_, err = s.Load(ctx, types.Goal{1})
	assert.True(t, errors.Is(err, types.ErrUntrainedGoal))
}

func TestCorruptTable(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("test:table:[1]", "garbage"))
	_, err := s.Load(context.Background(), types.Goal{1})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrUntrainedGoal))
}

// flip world: one axis {0,1}, actions set it to 0 or 1
type flipEnv struct {
	*types.Spaces
	state types.State
}

func (e *flipEnv) ReadCurrentState(context.Context) (types.Observation, error) {
	return e.Observe(e.state)
}

func (e *flipEnv) PerformAction(_ context.Context, a int) error {
	action, _ := e.ActionSpace().Action(a)
	key, _ := e.StateSpace().Axis(0).KeyOf(action.Payload[0])
	e.state[0] = key
	return nil
}

func (e *flipEnv) Reset(context.Context) error {
	e.state = types.State{0}
	return nil
}

func newFlipLearner(t *testing.T) *policies.QLearner {
	states, err := types.NewStateSpace(types.LevelAxis("x", 2))
	require.NoError(t, err)
	actions, err := types.NewActionSpace(states, []types.ControllableProperty{
		{Tag: "setX", Axis: "x", Field: "x", Values: []interface{}{0, 1}},
	})
	require.NoError(t, err)
	env := &flipEnv{Spaces: types.NewSpaces(states, actions), state: types.State{0}}
	return policies.NewQLearner(env, policies.WithSeed(1))
}

func TestLearnerRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	learner := newFlipLearner(t)
	_, err := learner.Train(ctx, types.Goal{1}, types.LearningParams{Episodes: 1, Alpha: 0.5, Gamma: 0.9, Reward: 10})
	require.NoError(t, err)
	saved, err := s.SaveLearner(ctx, learner)
	require.NoError(t, err)
	assert.Equal(t, []types.Goal{{1}}, saved)

	fresh := newFlipLearner(t)
	loaded, err := s.LoadLearner(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, []types.Goal{{1}}, loaded)
	action, err := fresh.BestAction(types.Goal{1}, []interface{}{0})
	require.NoError(t, err)
	assert.Equal(t, 1, action.Index)

	table, ok := fresh.Table(types.Goal{1})
	require.True(t, ok)
	assert.InDelta(t, 5.0, table.Get(0, 1), 1e-9)
}
