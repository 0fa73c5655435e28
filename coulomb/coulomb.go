// Package coulomb builds the two-body Coulomb interaction of an atomic shell from Slater integrals.
//
// References:
//   - Theory of Atomic Structure, E. U. Condon and G. H. Shortley, Chapter 6.
//   - Quantum Theory of Atomic Structure, J. C. Slater, Appendix 20a.
package coulomb

import (
	"fmt"
	"math"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"github.com/fumin/atomed/angmom"
)

const (
	// maxFactorial bounds the arguments of ThreeJ to j1+j2+j3+1 <= maxFactorial.
	maxFactorial = 64
)

var (
	factorials = newFactorials(maxFactorial)
)

// ThreeJ returns the Wigner 3j symbol (j1 j2 j3; m1 m2 m3) for integer arguments, using the Racah formula.
// It panics if j1+j2+j3+1 exceeds maxFactorial.
func ThreeJ(j1, j2, j3, m1, m2, m3 int) float64 {
	if m1+m2+m3 != 0 {
		return 0
	}
	if abs(m1) > j1 || abs(m2) > j2 || abs(m3) > j3 {
		return 0
	}
	if j3 < abs(j1-j2) || j3 > j1+j2 {
		return 0
	}
	if j1+j2+j3+1 > maxFactorial {
		panic(fmt.Sprintf("%+v", errors.Errorf("j1+j2+j3+1 = %d exceeds %d", j1+j2+j3+1, maxFactorial)))
	}

	f := factorials
	triangle := f[j1+j2-j3] * f[j1-j2+j3] * f[-j1+j2+j3] / f[j1+j2+j3+1]
	pre := math.Sqrt(triangle * f[j1+m1] * f[j1-m1] * f[j2+m2] * f[j2-m2] * f[j3+m3] * f[j3-m3])

	tmin := max(0, j2-j3-m1, j1-j3+m2)
	tmax := min(j1+j2-j3, j1-m1, j2+m2)
	var sum float64
	for t := tmin; t <= tmax; t++ {
		d := f[t] * f[j3-j2+t+m1] * f[j3-j1+t-m2] * f[j1+j2-j3-t] * f[j1-t-m1] * f[j2-t+m2]
		sum += parity(t) / d
	}
	return parity(j1-j2-m3) * pre * sum
}

// Gaunt returns the Gaunt coefficient c^k(l1 m1, l2 m2) = sqrt(4pi/(2k+1)) <l1 m1|Y_k,m1-m2|l2 m2>.
func Gaunt(l1, m1, k, l2, m2 int) float64 {
	return parity(m1) * math.Sqrt(float64((2*l1+1)*(2*l2+1))) * ThreeJ(l1, k, l2, 0, 0, 0) * ThreeJ(l1, k, l2, -m1, m1-m2, m2)
}

// UmatSlater returns the Coulomb tensor of a shell given the Slater integrals F^0, F^2, ..., F^2l.
//
// The tensor multiplies c+_i c+_j c_l c_k, and U[i,j,k,l] = <ij|V|kl>/2 where
//
//	<ij|V|kl> = delta(s_i,s_k) delta(s_j,s_l) delta(m_i+m_j,m_k+m_l) sum_k c^k(m_i,m_k) c^k(m_l,m_j) F^k.
func UmatSlater(shell string, slater ...float64) (*tensor.Dense, error) {
	l, err := angmom.ShellL(shell)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if len(slater) != l+1 {
		return nil, errors.Errorf("shell %s needs %d Slater integrals, got %#v", shell, l+1, slater)
	}

	// gaunt[k/2][m1+l][m2+l] is c^k(l m1, l m2).
	n := 2*l + 1
	gaunt := make([][][]float64, len(slater))
	for ik := range slater {
		gaunt[ik] = make([][]float64, n)
		for m1 := -l; m1 <= l; m1++ {
			gaunt[ik][m1+l] = make([]float64, n)
			for m2 := -l; m2 <= l; m2++ {
				gaunt[ik][m1+l][m2+l] = Gaunt(l, m1, 2*ik, l, m2)
			}
		}
	}

	norb := angmom.NumOrbitals(l)
	u := tensor.Zeros(norb, norb, norb, norb)
	for i := range norb {
		mi, si := angmom.Quantum(l, i)
		for j := range norb {
			mj, sj := angmom.Quantum(l, j)
			for k := range norb {
				mk, sk := angmom.Quantum(l, k)
				if sk != si {
					continue
				}
				for o := range norb {
					mo, so := angmom.Quantum(l, o)
					if so != sj || mi+mj != mk+mo {
						continue
					}

					var v float64
					for ik, fk := range slater {
						v += gaunt[ik][mi+l][mk+l] * gaunt[ik][mo+l][mj+l] * fk
					}
					if v == 0 {
						continue
					}
					u.SetAt([]int{i, j, k, o}, complex(float32(v/2), 0))
				}
			}
		}
	}
	return u, nil
}

func newFactorials(n int) []float64 {
	f := make([]float64, n+1)
	f[0] = 1
	for i := 1; i <= n; i++ {
		f[i] = f[i-1] * float64(i)
	}
	return f
}

func parity(n int) float64 {
	if n%2 != 0 {
		return -1
	}
	return 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
