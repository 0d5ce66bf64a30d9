package benchmarks

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/lab-rl/config"
	"github.com/zeu5/lab-rl/lab"
	"github.com/zeu5/lab-rl/policies"
	"github.com/zeu5/lab-rl/types"
)

// simulatedTrainer starts a fresh simulated lab for every run, stopped with the run's context
func simulatedTrainer(cfg *config.Config, seed uint64) types.TrainerFactory {
	return func(ctx context.Context) (types.Trainer, error) {
		server, err := startSimulator(ctx, "127.0.0.1:0", seed, cfg.Logger)
		if err != nil {
			return nil, err
		}
		labConfig := cfg.LabConfig()
		labConfig.URL = server.URL()
		env, err := lab.NewLab(ctx, labConfig, types.NewNullLogger())
		if err != nil {
			return nil, err
		}
		return policies.NewQLearner(env, learnerOptions(cfg)...), nil
	}
}

// Compare trains the goal on the simulated lab with a range of exploration rates
func Compare(ctx context.Context, cfg *config.Config, goal types.Goal, epsilons []float64) error {
	c := types.NewComparison(&types.ComparisonConfig{
		Runs:         runs,
		RecordPath:   saveFile,
		RecordTraces: true,
		Logger:       cfg.Logger,
	})
	plots := path.Join(saveFile, "plots")
	c.AddAnalysis("steps", types.StepsAnalyzer(), types.ChainComparators(
		types.LinePlotComparator(plots, "steps", "Steps"),
		types.SummaryComparator(cfg.Logger, saveFile, "steps"),
	))
	c.AddAnalysis("returns", types.ReturnAnalyzer(), types.ChainComparators(
		types.LinePlotComparator(plots, "returns", "Return"),
		types.SummaryComparator(cfg.Logger, saveFile, "returns"),
	))

	for i, eps := range epsilons {
		params := cfg.LearningParams()
		params.Epsilon = eps
		if err := params.Validate(); err != nil {
			return err
		}
		seed := cfg.Simulator.Seed
		if seed != 0 {
			seed += uint64(i)
		}
		c.AddExperiment(types.NewExperiment(
			fmt.Sprintf("epsilon-%.2f", eps),
			goal,
			params,
			simulatedTrainer(cfg, seed),
		))
	}
	return c.Run(ctx)
}

func CompareCommand() *cobra.Command {
	var goal string
	var epsilons []float64
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare exploration rates on the simulated lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := types.ParseGoal(goal)
			if err != nil {
				return err
			}
			cfg, err := readConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return Compare(ctx, cfg, g, epsilons)
		},
	}
	cmd.Flags().StringVarP(&goal, "goal", "g", "2,2", "Goal as comma separated levels")
	cmd.Flags().Float64SliceVar(&epsilons, "epsilons", []float64{0.1, 0.4, 0.8}, "Exploration rates to compare")
	return cmd
}
