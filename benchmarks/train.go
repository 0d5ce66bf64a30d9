package benchmarks

import (
	"context"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/lab-rl/config"
	"github.com/zeu5/lab-rl/lab"
	"github.com/zeu5/lab-rl/policies"
	"github.com/zeu5/lab-rl/store"
	"github.com/zeu5/lab-rl/types"
)

type TrainOptions struct {
	Goal      types.Goal
	Simulated bool
	Persist   bool
	Record    bool
}

// learnerOptions turns the learning config into learner options
func learnerOptions(cfg *config.Config) []policies.Option {
	opts := []policies.Option{policies.WithLogger(cfg.Logger)}
	if cfg.Learning.Seed != 0 {
		opts = append(opts, policies.WithSeed(cfg.Learning.Seed))
	}
	return opts
}

func Train(ctx context.Context, cfg *config.Config, opts TrainOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	labConfig := cfg.LabConfig()
	if opts.Simulated {
		server, err := startSimulator(ctx, "127.0.0.1:0", cfg.Simulator.Seed, cfg.Logger)
		if err != nil {
			return err
		}
		labConfig.URL = server.URL()
	}
	env, err := lab.NewLab(ctx, labConfig, cfg.Logger)
	if err != nil {
		return err
	}
	learner := policies.NewQLearner(env, learnerOptions(cfg)...)

	params := cfg.LearningParams()
	report, err := learner.Train(ctx, opts.Goal, params)
	if report != nil {
		analyzer := types.StepsAnalyzer()
		analyzer.Analyze(0, "train", report)
		steps := types.Summarize(analyzer.DataSet().([]float64))
		cfg.Logger.Infof("Trained goal %s over %d episodes: %.2f steps on average, %.2f over the last episodes", opts.Goal, len(report.Traces), steps.Mean, steps.TailMean)
	}
	if err != nil {
		return err
	}

	if opts.Record {
		table, _ := learner.Table(opts.Goal)
		if err := table.Record(path.Join(saveFile, "qtable_"+opts.Goal.String()+".json")); err != nil {
			cfg.Logger.Errorf("error recording table: %s", err)
		}
	}
	if opts.Persist {
		table, err := learner.Export(opts.Goal)
		if err != nil {
			return err
		}
		tables := store.NewTableStore(cfg.RedisOptions(), cfg.Redis.Prefix)
		defer tables.Close()
		if err := tables.Save(ctx, opts.Goal, table); err != nil {
			return err
		}
		cfg.Logger.Infof("Stored table for goal %s", opts.Goal)
	}

	obs, current, err := learner.CurrentState(ctx)
	if err != nil {
		return err
	}
	if opts.Goal.Reached(obs.State) {
		cfg.Logger.Infof("Lab is in goal state %v", current)
		return nil
	}
	action, err := learner.BestAction(opts.Goal, current)
	if err != nil {
		return err
	}
	cfg.Logger.Infof("From %v the next action is %s", current, action)
	return nil
}

func TrainCommand() *cobra.Command {
	var goal string
	opts := TrainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a table for a goal against the lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := types.ParseGoal(goal)
			if err != nil {
				return err
			}
			opts.Goal = g
			cfg, err := readConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return Train(ctx, cfg, opts)
		},
	}
	cmd.Flags().StringVarP(&goal, "goal", "g", "2,2", "Goal as comma separated levels, e.g. 2,3 for z1Level 2 and z2Level 3")
	cmd.Flags().BoolVar(&opts.Simulated, "simulated", false, "Train against an in-process simulated lab")
	cmd.Flags().BoolVar(&opts.Persist, "persist", false, "Store the trained table in redis")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "Record the trained table as json in the save folder")
	return cmd
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	bindFlags(cmd.Flags(), map[string]string{key: flag})
}
