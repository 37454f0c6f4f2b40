// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()

	return out.String(), err
}

func TestRationalCmd(t *testing.T) {
	out, err := execute(t, "rational", "--lo", "0.1", "--hi", "10", "--power", "-0.5", "--degree", "6")
	require.NoError(t, err)
	require.Contains(t, out, "x^-0.5 on [0.1, 10] degree 6")
	require.Equal(t, 6, strings.Count(out, "residue"))

	_, err = execute(t, "rational", "--power", "2")
	require.Error(t, err)
}

func TestRunAndInspect(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "ckpoint")
	cfg := `
lattice:
  dims: [4, 4]
hmc:
  trajectories: 2
checkpoint:
  backend: file
  dir: ` + store + `
levels:
  - multiplier: 1
    actions:
      - type: wilson-gauge
        beta: 1.0
`
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	out, err := execute(t, "run", "--config", path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, "traj "))
	require.Contains(t, out, "next trajectory 2")

	out, err = execute(t, "run", "--config", path, "--start-trajectory", "2", "--trajectories", "1")
	require.NoError(t, err)
	require.Contains(t, out, "next trajectory 3")

	out, err = execute(t, "inspect", "--store", store)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(out, "traj "))
	require.Contains(t, out, "dims [4 4]")

	_, err = execute(t, "inspect", "--store", store, "--trajectory", "9")
	require.Error(t, err)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}
