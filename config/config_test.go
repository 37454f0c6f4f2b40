// SPDX-License-Identifier: MIT

package config_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/latticehmc/checkpoint"
	"github.com/katalvlaran/latticehmc/config"
	"github.com/katalvlaran/latticehmc/hmc"
	"github.com/katalvlaran/latticehmc/integrator"
)

const minimal = `
lattice:
  dims: [4, 4]
levels:
  - multiplier: 1
    actions:
      - type: wilson-gauge
        beta: 0.01
`

func TestParse_Defaults(t *testing.T) {
	c, err := config.Parse([]byte(minimal))
	require.NoError(t, err)
	require.Equal(t, config.DefaultSerialSeeds, c.RNG.SerialSeeds)
	require.Equal(t, config.DefaultParallelSeeds, c.RNG.ParallelSeeds)
	require.Equal(t, integrator.DefaultSteps, c.Integrator.Steps)
	require.Equal(t, integrator.DefaultLength, c.Integrator.Length)
	require.Equal(t, "leapfrog", c.Integrator.Scheme)
	require.Equal(t, hmc.DefaultSaveInterval, c.HMC.SaveInterval)
	require.True(t, c.HMC.MetropolisTest)
	require.Equal(t, config.BackendFile, c.Checkpoint.Backend)
	require.Equal(t, checkpoint.DefaultConfigPrefix, c.Checkpoint.ConfigPrefix)
}

func TestLoad(t *testing.T) {
	c, err := config.Load("testdata/run.yaml")
	require.NoError(t, err)
	require.Len(t, c.Levels, 2)
	require.Equal(t, 1e-9, c.Solver.ForceTolerance)
	require.Equal(t, 1e-10, c.Solver.ActionTolerance)
	require.NotNil(t, c.Levels[1].Actions[0].Smear)

	_, err = config.Load("testdata/missing.yaml")
	require.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":         minimal + "bogus: 1\n",
		"short extent":        strings.Replace(minimal, "[4, 4]", "[4, 1]", 1),
		"five dims":           strings.Replace(minimal, "[4, 4]", "[2, 2, 2, 2, 2]", 1),
		"zero beta":           strings.Replace(minimal, "beta: 0.01", "beta: 0", 1),
		"unknown action":      strings.Replace(minimal, "wilson-gauge", "staggered", 1),
		"bad scheme":          minimal + "integrator:\n  scheme: rk4\n",
		"bad start":           minimal + "hmc:\n  start: lukewarm\n",
		"bad seeds":           minimal + "rng:\n  serial_seeds: \"1 x\"\n",
		"no levels":           "lattice:\n  dims: [4, 4]\n",
		"checkpoint start":    minimal + "hmc:\n  start: checkpoint\ncheckpoint:\n  backend: none\n",
		"same prefixes":       minimal + "checkpoint:\n  config_prefix: a\n  rng_prefix: a\n",
		"bad run id":          minimal + "run_id: nope\n",
		"missing rational":    minimal + "  - multiplier: 2\n    actions:\n      - type: one-flavour-rational\n        mass: 0.1\n",
		"missing eofa":        minimal + "  - multiplier: 2\n    actions:\n      - type: exact-one-flavour-ratio\n        mass: 0.1\n",
		"equal ratio masses":  minimal + "  - multiplier: 2\n    actions:\n      - type: two-flavour-ratio\n        mass: 0.1\n        numerator_mass: 0.1\n",
		"decreasing levels":   minimal + "  - multiplier: 0\n    actions:\n      - type: wilson-gauge\n        beta: 1\n",
		"multiplier ordering": strings.Replace(minimal, "multiplier: 1", "multiplier: 3", 1) + "  - multiplier: 2\n    actions:\n      - type: wilson-gauge\n        beta: 1\n",
		"inverted bounds":     minimal + "  - multiplier: 2\n    actions:\n      - type: one-flavour-rational\n        rational:\n          lo: 2\n          hi: 1\n          degree: 4\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	c, err := config.Load("testdata/run.yaml")
	require.NoError(t, err)
	data, err := c.Marshal()
	require.NoError(t, err)
	back, err := config.Parse(data)
	require.NoError(t, err)
	require.Equal(t, c, back)
}

func TestBuild_Run(t *testing.T) {
	c, err := config.Load("testdata/run.yaml")
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	var results []hmc.Result
	run, err := config.Build(c,
		config.WithRegisterer(reg),
		config.WithOnTrajectory(func(r hmc.Result) { results = append(results, r) }))
	require.NoError(t, err)
	defer func() { require.NoError(t, run.Close()) }()

	require.Equal(t, "7b0d3c1e-4f7a-4a53-9a0e-2b1c9d8e6f10", run.RunID.String())
	require.Nil(t, run.Store)
	require.Equal(t, 2, run.Set.Levels())
	require.Equal(t, integrator.MinimumNorm2, run.Integrator.Params().Scheme)

	sum, err := run.Engine.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sum.Trajectories)
	require.Len(t, results, 2)
	require.Equal(t, []int{9, 33}, results[0].ForceEvaluations)
	require.Positive(t, testutil.CollectAndCount(reg, "latticehmc_solver_iterations"))
}

func TestBuild_Stores(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			c, err := config.Parse([]byte(minimal))
			require.NoError(t, err)
			c.HMC.Trajectories = 2
			c.Checkpoint.Backend = backend
			c.Checkpoint.Dir = t.TempDir()
			run, err := config.Build(c)
			require.NoError(t, err)
			_, err = run.Engine.Run(context.Background())
			require.NoError(t, err)

			lister, ok := run.Store.(interface {
				Trajectories(context.Context) ([]int, error)
			})
			require.True(t, ok)
			got, err := lister.Trajectories(context.Background())
			require.NoError(t, err)
			require.Equal(t, []int{1, 2}, got)
			require.NoError(t, run.Close())
		})
	}
}
