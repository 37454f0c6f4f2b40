// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/latticehmc/checkpoint"
	"github.com/katalvlaran/latticehmc/config"
)

// inspector is the read side shared by both checkpoint stores.
type inspector interface {
	Header(ctx context.Context, traj int) (checkpoint.Header, error)
	Trajectories(ctx context.Context) ([]int, error)
	Close() error
}

func newInspectCmd() *cobra.Command {
	var (
		dir     string
		backend string
		traj    int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List stored checkpoints or print one header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openInspector(backend, dir)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, out := cmd.Context(), cmd.OutOrStdout()
			trajs := []int{traj}
			if traj < 0 {
				if trajs, err = st.Trajectories(ctx); err != nil {
					return err
				}
			}
			for _, t := range trajs {
				h, err := st.Header(ctx, t)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "traj %6d  dims %v  plaq %.15f  run %s\n", h.Trajectory, h.Dims, h.Plaquette, h.RunID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "store", config.DefaultCheckpointDir, "checkpoint directory")
	cmd.Flags().StringVar(&backend, "backend", config.BackendFile, "store backend: file or badger")
	cmd.Flags().IntVar(&traj, "trajectory", -1, "trajectory to print; negative lists all")

	return cmd
}

func openInspector(backend, dir string) (inspector, error) {
	switch backend {
	case config.BackendFile:
		s, err := checkpoint.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendBadger:
		s, err := checkpoint.OpenBadger(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
