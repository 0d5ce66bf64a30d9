package benchmarks

import (
	"context"
	"net"

	"github.com/spf13/cobra"
	"github.com/zeu5/lab-rl/config"
	"github.com/zeu5/lab-rl/lab"
	"github.com/zeu5/lab-rl/types"
)

// startSimulator serves a simulated lab on addr ("127.0.0.1:0" picks a free port) until ctx is done
func startSimulator(ctx context.Context, addr string, seed uint64, logger types.Logger) (*lab.SimulatorServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := lab.NewSimulatorServer(ctx, addr, lab.NewSimulator(seed), logger)
	server.Serve(ln)
	return server, nil
}

func Simulate(ctx context.Context, cfg *config.Config) error {
	server, err := startSimulator(ctx, cfg.Simulator.Listen, cfg.Simulator.Seed, cfg.Logger)
	if err != nil {
		return err
	}
	cfg.Logger.Infof("Simulated lab listening, thing description at %s", server.URL())
	<-ctx.Done()
	return nil
}

func SimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return Simulate(ctx, cfg)
		},
	}
	cmd.Flags().String("listen", "", "Address to serve the simulator on")
	cmd.Flags().Uint64("sim-seed", 0, "Seed of the simulator resets")
	bindFlag(cmd, "simulator.listen", "listen")
	bindFlag(cmd, "simulator.seed", "sim-seed")
	return cmd
}
