package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/lab-rl/policies"
	"github.com/zeu5/lab-rl/types"
)

const DefaultPrefix = "labrl"

// TableStore persists Q-tables in redis, one key per goal plus a set indexing the goals
type TableStore struct {
	client *redis.Client
	prefix string
}

func NewTableStore(opts *redis.Options, prefix string) *TableStore {
	return NewTableStoreWithClient(redis.NewClient(opts), prefix)
}

func NewTableStoreWithClient(client *redis.Client, prefix string) *TableStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &TableStore{
		client: client,
		prefix: prefix,
	}
}

func (s *TableStore) tableKey(goal types.Goal) string {
	return s.prefix + ":table:" + goal.String()
}

func (s *TableStore) indexKey() string {
	return s.prefix + ":goals"
}

func (s *TableStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *TableStore) Close() error {
	return s.client.Close()
}

// Save stores the table of the goal, replacing what was stored before
func (s *TableStore) Save(ctx context.Context, goal types.Goal, table *policies.QTable) error {
	bs, err := table.MarshalBinary()
	if err != nil {
		return fmt.Errorf("error encoding table: %s", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tableKey(goal), bs, 0)
		pipe.SAdd(ctx, s.indexKey(), goal.String())
		return nil
	})
	return err
}

// Load reads the table stored for the goal
func (s *TableStore) Load(ctx context.Context, goal types.Goal) (*policies.QTable, error) {
	bs, err := s.client.Get(ctx, s.tableKey(goal)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: no stored table for %s", types.ErrUntrainedGoal, goal)
	} else if err != nil {
		return nil, err
	}
	table := &policies.QTable{}
	if err := table.UnmarshalBinary(bs); err != nil {
		return nil, fmt.Errorf("error decoding table for %s: %s", goal, err)
	}
	return table, nil
}

// Goals lists the goals with a stored table
func (s *TableStore) Goals(ctx context.Context) ([]types.Goal, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	out := make([]types.Goal, 0, len(members))
	for _, m := range members {
		g, err := types.ParseGoal(m)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *TableStore) Delete(ctx context.Context, goal types.Goal) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.tableKey(goal))
		pipe.SRem(ctx, s.indexKey(), goal.String())
		return nil
	})
	return err
}

// SaveLearner stores every table of the learner and returns the saved goals
func (s *TableStore) SaveLearner(ctx context.Context, learner *policies.QLearner) ([]types.Goal, error) {
	saved := make([]types.Goal, 0)
	for _, g := range learner.Goals() {
		table, err := learner.Export(g)
		if err != nil {
			return saved, err
		}
		if err := s.Save(ctx, g, table); err != nil {
			return saved, err
		}
		saved = append(saved, g)
	}
	return saved, nil
}

// LoadLearner imports every stored table into the learner and returns the loaded goals
func (s *TableStore) LoadLearner(ctx context.Context, learner *policies.QLearner) ([]types.Goal, error) {
	goals, err := s.Goals(ctx)
	if err != nil {
		return nil, err
	}
	loaded := make([]types.Goal, 0, len(goals))
	for _, g := range goals {
		table, err := s.Load(ctx, g)
		if err != nil {
			return loaded, err
		}
		if err := learner.Import(g, table); err != nil {
			return loaded, err
		}
		loaded = append(loaded, g)
	}
	return loaded, nil
}
