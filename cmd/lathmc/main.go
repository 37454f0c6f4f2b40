// SPDX-License-Identifier: MIT

// Command lathmc runs HMC lattice simulations from a YAML configuration,
// inspects stored checkpoints and prints rational approximations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by every subcommand.
type app struct {
	debug bool
	log   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "lathmc",
		Short: "Hybrid Monte Carlo for U(1) lattice gauge theory",
		Long: `lathmc generates gauge configurations with multi-timescale HMC.

Runs are described by a YAML file (see the config package); configurations and
RNG states are checkpointed so an interrupted run restarts bit-identically.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if a.debug {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("initialise logger: %w", err)
			}
			a.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level (per-level forces, solver statistics)")
	root.AddCommand(newRunCmd(a), newRationalCmd(), newInspectCmd())

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
