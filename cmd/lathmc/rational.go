// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/latticehmc/rational"
)

func newRationalCmd() *cobra.Command {
	var p rational.Params
	cmd := &cobra.Command{
		Use:   "rational",
		Short: "Fit and print a rational approximation of x^power",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rational.Fit(p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a)
			fmt.Fprintf(out, "a0 %.16e\n", a.A0)
			for k := range a.Residues {
				fmt.Fprintf(out, "%3d  residue %+.16e  shift %.16e\n", k, a.Residues[k], a.Shifts[k])
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&p.Lo, "lo", 1e-3, "lower spectral bound")
	cmd.Flags().Float64Var(&p.Hi, "hi", 64, "upper spectral bound")
	cmd.Flags().Float64Var(&p.Power, "power", -0.5, "exponent in (-1, 1)")
	cmd.Flags().IntVar(&p.Degree, "degree", 12, "number of poles")
	cmd.Flags().Float64Var(&p.Tolerance, "tolerance", 0, "fail when the relative error exceeds this; 0 disables")

	return cmd
}
