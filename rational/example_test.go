// SPDX-License-Identifier: MIT

package rational_test

import (
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/rational"
)

// ExampleFit approximates x^{-1/2} on [0.1, 10] with eight poles.
func ExampleFit() {
	a, err := rational.Fit(rational.Params{Lo: 0.1, Hi: 10, Power: -0.5, Degree: 8, Tolerance: 1e-6})
	if err != nil {
		fmt.Println("fit failed:", err)
		return
	}
	v, _ := a.Evaluate(4)
	fmt.Printf("r(4) = %.6f (exact %.6f)\n", v, 1/math.Sqrt(4))
	fmt.Println(len(a.Shifts), "shifts")
	// Output:
	// r(4) = 0.500000 (exact 0.500000)
	// 8 shifts
}
