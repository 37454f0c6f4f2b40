// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/config"
	"github.com/katalvlaran/latticehmc/hmc"
)

type runFlags struct {
	config          string
	trajectories    int
	startTrajectory int
	metricsAddr     string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate trajectories",
		Long: `Builds the run described by --config and generates trajectories.

--start-trajectory N restarts from the checkpoint written after N completed
trajectories. --metrics-addr exposes Prometheus metrics while the run lasts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "YAML run configuration (required)")
	cmd.Flags().IntVar(&f.trajectories, "trajectories", -1, "override hmc.trajectories")
	cmd.Flags().IntVar(&f.startTrajectory, "start-trajectory", -1, "restart from this checkpoint")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "listen address for /metrics, e.g. :9090")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *app) run(cmd *cobra.Command, f runFlags) error {
	// Stage 1: Configuration
	c, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if f.trajectories >= 0 {
		c.HMC.Trajectories = f.trajectories
	}
	if f.startTrajectory >= 0 {
		c.HMC.Start = hmc.StartCheckpoint.String()
		c.HMC.StartTrajectory = f.startTrajectory
	}

	// Stage 2: Metrics endpoint
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if f.metricsAddr != "" {
		stop, err := serveMetrics(f.metricsAddr, reg, a.log)
		if err != nil {
			return err
		}
		defer stop()
	}

	// Stage 3: Run
	out := cmd.OutOrStdout()
	run, err := config.Build(c,
		config.WithLogger(a.log),
		config.WithRegisterer(reg),
		config.WithOnTrajectory(func(r hmc.Result) {
			fmt.Fprintf(out, "traj %6d  dH %+.6e  acc %-5t  plaq %.12f  Q %+.4f\n",
				r.Trajectory, r.DeltaH, r.Accepted, r.Plaquette, r.TopologicalCharge)
		}))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := run.Close(); cerr != nil {
			a.log.Warn("close checkpoint store", zap.Error(cerr))
		}
	}()
	sum, err := run.Engine.Run(cmd.Context())
	fmt.Fprintf(out, "run %s: %d trajectories, acceptance %.3f, next trajectory %d\n",
		sum.RunID, sum.Trajectories, sum.AcceptanceRate(), sum.Last)
	if errors.Is(err, context.Canceled) {
		a.log.Warn("run interrupted", zap.Int("restart_trajectory", sum.Last))
		return nil
	}

	return err
}

// serveMetrics starts the /metrics endpoint and returns its shutdown function.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
