// SPDX-License-Identifier: MIT

// Package smear implements a differentiable stout-type smearing of U(1)
// gauge fields and the chain rule that pulls forces back to the
// fundamental field.
//
// One step moves every link down the gradient of the plaquette action,
//
//	θ^{k+1} = θ^k − ρ·∇S_p(θ^k),   S_p = Σ_p (1 − cos θ_p),
//
// so the Jacobian of a step is 1 − ρ·H_p(θ^k) with H_p the (symmetric)
// plaquette Hessian. A force F computed on the smeared field is mapped back
// step by step: F^k = F^{k+1} − ρ·H_p(θ^k)·F^{k+1}.
package smear
