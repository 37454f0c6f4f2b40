// SPDX-License-Identifier: MIT

package lattice

// spinMatrix is a dense Ns×Ns complex matrix (Ns ≤ 4).
type spinMatrix [4][4]complex128

// gammaBasis holds γ_mu for every direction and γ5.
type gammaBasis struct {
	ns    int
	gamma []spinMatrix
	g5    spinMatrix
}

// newGammaBasis returns the hermitian Euclidean basis for nd = 2 (Pauli
// matrices) or nd = 4 (chiral basis, γ5 = diag(1,1,−1,−1)).
func newGammaBasis(nd int) (*gammaBasis, error) {
	switch nd {
	case 2:
		b := &gammaBasis{ns: 2, gamma: make([]spinMatrix, 2)}
		// γ_0 = σ1, γ_1 = σ2, γ5 = σ3
		b.gamma[0][0][1], b.gamma[0][1][0] = 1, 1
		b.gamma[1][0][1], b.gamma[1][1][0] = -1i, 1i
		b.g5[0][0], b.g5[1][1] = 1, -1
		return b, nil
	case 4:
		b := &gammaBasis{ns: 4, gamma: make([]spinMatrix, 4)}
		sigma := [3][2][2]complex128{
			{{0, 1}, {1, 0}},
			{{0, -1i}, {1i, 0}},
			{{1, 0}, {0, -1}},
		}
		// γ_k = [[0, −iσ_k], [iσ_k, 0]]
		for k := 0; k < 3; k++ {
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					b.gamma[k][i][j+2] = -1i * sigma[k][i][j]
					b.gamma[k][i+2][j] = 1i * sigma[k][i][j]
				}
			}
		}
		// γ_4 = [[0, 1], [1, 0]]
		for i := 0; i < 2; i++ {
			b.gamma[3][i][i+2] = 1
			b.gamma[3][i+2][i] = 1
		}
		b.g5[0][0], b.g5[1][1], b.g5[2][2], b.g5[3][3] = 1, 1, -1, -1
		return b, nil
	default:
		return nil, ErrUnsupportedNd
	}
}

// project writes out = (1 + sign·γ_mu)·in for one site spinor.
func (b *gammaBasis) project(mu int, sign float64, in, out []complex128) {
	g := &b.gamma[mu]
	s := complex(sign, 0)
	for i := 0; i < b.ns; i++ {
		acc := in[i]
		for j := 0; j < b.ns; j++ {
			if g[i][j] != 0 {
				acc += s * g[i][j] * in[j]
			}
		}
		out[i] = acc
	}
}

// applyG5 writes out = γ5·in for a whole spinor field.
func (b *gammaBasis) applyG5(in, out []complex128) {
	for base := 0; base < len(in); base += b.ns {
		for i := 0; i < b.ns; i++ {
			out[base+i] = b.g5[i][i] * in[base+i]
		}
	}
}

// chiralMinus writes out = ½(1 − γ5)·in.
func (b *gammaBasis) chiralMinus(in, out []complex128) {
	for base := 0; base < len(in); base += b.ns {
		for i := 0; i < b.ns; i++ {
			if real(b.g5[i][i]) < 0 {
				out[base+i] = in[base+i]
			} else {
				out[base+i] = 0
			}
		}
	}
}
