package benchmarks

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeu5/lab-rl/config"
)

var (
	saveFile string
	runs     int
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "lab-rl",
		Short:        "Q-learning for the Interactions lab",
		SilenceUsage: true,
	}
	flags := rootCommand.PersistentFlags()
	flags.String("config-dir", "", "Directory containing config.yaml")
	flags.Bool("debug", false, "Enable debug output")
	flags.String("logfile", "", "Also write the logs to this file")
	flags.Bool("quiet", false, "Do not log to stdout")
	flags.String("lab-url", "", "URL of the lab thing description")
	flags.IntP("episodes", "e", 0, "Number of episodes to train for")
	flags.Int("horizon", 0, "Bound on the steps of an episode, 0 for unbounded")
	flags.Float64("alpha", 0, "Learning rate")
	flags.Float64("gamma", 0, "Discount factor")
	flags.Float64("epsilon", 0, "Exploration probability")
	flags.Float64("reward", 0, "Reward for reaching the goal")
	flags.Uint64("seed", 0, "Seed of the action selection, 0 seeds from the clock")
	flags.String("redis-addr", "", "Address of the redis table store")
	flags.StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	flags.IntVar(&runs, "runs", 1, "Number of experiment runs")

	bindFlags(flags, map[string]string{
		"config-dir":        "config-dir",
		"debug":             "debug",
		"logfile":           "logfile",
		"quiet":             "quiet",
		"lab.url":           "lab-url",
		"learning.episodes": "episodes",
		"learning.horizon":  "horizon",
		"learning.alpha":    "alpha",
		"learning.gamma":    "gamma",
		"learning.epsilon":  "epsilon",
		"learning.reward":   "reward",
		"learning.seed":     "seed",
		"redis.addr":        "redis-addr",
	})

	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(SimulateCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(CompareCommand())
	return rootCommand
}

// bindFlags maps config keys to the flags overriding them
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func readConfig() (*config.Config, error) {
	return config.ReadConfig(viper.GetViper(), viper.GetString("config-dir"))
}

// signalContext is cancelled on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
