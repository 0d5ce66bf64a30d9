package benchmarks

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zeu5/lab-rl/api"
	"github.com/zeu5/lab-rl/config"
	"github.com/zeu5/lab-rl/lab"
	"github.com/zeu5/lab-rl/store"
	"github.com/zeu5/lab-rl/types"
)

// labFactory builds labs from initialize requests, falling back to the configured lab
func labFactory(cfg *config.Config) api.EnvironmentFactory {
	return func(ctx context.Context, req api.InitializeRequest) (types.Environment, error) {
		labConfig := cfg.LabConfig()
		if req.URL != "" {
			labConfig.URL = req.URL
		}
		if req.ResetPath != "" {
			labConfig.ResetPath = req.ResetPath
		}
		return lab.NewLab(ctx, labConfig, cfg.Logger)
	}
}

func Serve(ctx context.Context, cfg *config.Config, initialize bool) error {
	tables := store.NewTableStore(cfg.RedisOptions(), cfg.Redis.Prefix)
	defer tables.Close()
	if err := tables.Ping(ctx); err != nil {
		cfg.Logger.Warnf("Table store at %s is not reachable: %s", cfg.Redis.Addr, err)
	}

	server := api.NewServer(api.Config{
		Addr:     cfg.Listen,
		Factory:  labFactory(cfg),
		Defaults: cfg.LearningParams(),
		Store:    tables,
		Options:  learnerOptions(cfg),
		Logger:   cfg.Logger,
	})
	if initialize {
		if _, err := server.Initialize(ctx, api.InitializeRequest{}); err != nil {
			return err
		}
	}
	server.Start(ctx)
	cfg.Logger.Infof("Serving on %s", cfg.Listen)
	<-ctx.Done()
	return nil
}

func ServeCommand() *cobra.Command {
	var initialize bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose training and action selection over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return Serve(ctx, cfg, initialize)
		},
	}
	cmd.Flags().String("listen", "", "Address to serve on")
	cmd.Flags().BoolVar(&initialize, "initialize", false, "Initialize against the configured lab on start")
	bindFlag(cmd, "listen", "listen")
	return cmd
}
