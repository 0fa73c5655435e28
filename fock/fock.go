// Package fock enumerates Fock states of fermions and builds many-body operators in that basis.
//
// A Fock state is a bit pattern where bit i set means spin-orbital i is occupied.
// Creation and annihilation at orbital i carry the sign (-1)^n, where n is the number of
// occupied orbitals with index below i.
package fock

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/fumin/tensor"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/fumin/atomed/angmom"
	emat "github.com/fumin/atomed/mat"
	"github.com/fumin/atomed/mat/util"
)

const (
	// maxOrbitals is the number of bits in a state.
	maxOrbitals = 64

	// zeroTol is the magnitude below which operator coefficients are skipped.
	zeroTol = 1e-10
)

var log = logging.MustGetLogger("fock")

// Basis is an ordered set of Fock states.
type Basis struct {
	NumOrbitals int
	States      []uint64

	index map[uint64]int
}

// ByN returns all states with n electrons in norb orbitals.
// States are ordered lexicographically by their occupied orbital indices.
func ByN(norb, n int) (*Basis, error) {
	if norb <= 0 || norb > maxOrbitals {
		return nil, errors.Errorf("%d orbitals", norb)
	}
	if n < 0 || n > norb {
		return nil, errors.Errorf("%d electrons in %d orbitals", n, norb)
	}

	var states []uint64
	switch n {
	case 0:
		states = []uint64{0}
	default:
		combs := combin.Combinations(norb, n)
		states = make([]uint64, 0, len(combs))
		for _, occupied := range combs {
			var s uint64
			for _, i := range occupied {
				s |= 1 << i
			}
			states = append(states, s)
		}
	}
	return NewBasis(norb, states)
}

// NewBasis returns a basis of the given states in the given order.
func NewBasis(norb int, states []uint64) (*Basis, error) {
	b := &Basis{NumOrbitals: norb, States: states, index: make(map[uint64]int, len(states))}
	for i, s := range states {
		if norb < maxOrbitals && s>>norb != 0 {
			return nil, errors.Errorf("state %b exceeds %d orbitals", s, norb)
		}
		if _, ok := b.index[s]; ok {
			return nil, errors.Errorf("duplicate state %b", s)
		}
		b.index[s] = i
	}
	return b, nil
}

func (b *Basis) Len() int { return len(b.States) }

// Index returns the position of state in b.
func (b *Basis) Index(state uint64) (int, bool) {
	i, ok := b.index[state]
	return i, ok
}

// Occupation returns the occupation numbers of the i-th state, for orbitals 0, 1, ..., NumOrbitals-1.
func (b *Basis) Occupation(i int) []byte {
	occ := make([]byte, b.NumOrbitals)
	for j := range occ {
		occ[j] = byte(b.States[i] >> j & 1)
	}
	return occ
}

func (b *Basis) String() string {
	lines := make([]string, 0, b.Len())
	for i := range b.States {
		occ := b.Occupation(i)
		cs := make([]string, 0, len(occ))
		for _, o := range occ {
			cs = append(cs, fmt.Sprintf("%d", o))
		}
		lines = append(lines, "["+strings.Join(cs, " ")+"]")
	}
	return "[" + strings.Join(lines, "\n ") + "]"
}

// Create applies c+_i to state, returning the new state and its sign.
// The sign is 0 if orbital i is already occupied.
func Create(state uint64, i int) (uint64, float64) {
	if state>>i&1 == 1 {
		return state, 0
	}
	return state | 1<<i, sign(state, i)
}

// Annihilate applies c_i to state, returning the new state and its sign.
// The sign is 0 if orbital i is empty.
func Annihilate(state uint64, i int) (uint64, float64) {
	if state>>i&1 == 0 {
		return state, 0
	}
	return state &^ (1 << i), sign(state, i)
}

func sign(state uint64, i int) float64 {
	below := state & (1<<i - 1)
	if bits.OnesCount64(below)%2 == 1 {
		return -1
	}
	return 1
}

// TwoFermion returns the matrix of sum_ij t_ij c+_i c_j in basis b.
func TwoFermion(t mat.Matrix, b *Basis) (*emat.COO, error) {
	r, c := t.Dims()
	if r != b.NumOrbitals || c != b.NumOrbitals {
		return nil, errors.Errorf("%dx%d operator in %d orbitals", r, c, b.NumOrbitals)
	}
	type term struct {
		i, j int
		v    float64
	}
	terms := make([]term, 0)
	for ij, v := range emat.FromDense(t, zeroTol).All() {
		terms = append(terms, term{i: ij[0], j: ij[1], v: v})
	}

	m := emat.NewCOO(b.Len(), b.Len())
	for col, state := range b.States {
		for _, tm := range terms {
			s1, sg1 := Annihilate(state, tm.j)
			if sg1 == 0 {
				continue
			}
			s2, sg2 := Create(s1, tm.i)
			if sg2 == 0 {
				continue
			}
			row, ok := b.Index(s2)
			if !ok {
				return nil, errors.Errorf("%b not in basis", s2)
			}
			m.AddAt(row, col, sg1*sg2*tm.v)
		}
	}
	m.Compact(zeroTol)
	return m, nil
}

// FourFermion returns the matrix of sum_ijkl U_ijkl c+_i c+_j c_l c_k in basis b.
func FourFermion(u *tensor.Dense, b *Basis) (*emat.COO, error) {
	shape := u.Shape()
	norb := b.NumOrbitals
	if len(shape) != 4 || shape[0] != norb || shape[1] != norb || shape[2] != norb || shape[3] != norb {
		return nil, errors.Errorf("%#v tensor in %d orbitals", shape, norb)
	}
	type term struct {
		i, j, k, l int
		v          float64
	}
	terms := make([]term, 0)
	for ijkl, v := range u.All() {
		if imag(v) != 0 {
			return nil, errors.Errorf("complex element %v at %#v", v, ijkl)
		}
		if abs(float64(real(v))) <= zeroTol {
			continue
		}
		terms = append(terms, term{i: ijkl[0], j: ijkl[1], k: ijkl[2], l: ijkl[3], v: float64(real(v))})
	}
	log.Debugf("%d four fermion terms, %d states", len(terms), b.Len())

	throttler := util.NewSkipThrottler(10 * time.Second)
	m := emat.NewCOO(b.Len(), b.Len())
	for col, state := range b.States {
		for _, tm := range terms {
			s1, sg1 := Annihilate(state, tm.k)
			if sg1 == 0 {
				continue
			}
			s2, sg2 := Annihilate(s1, tm.l)
			if sg2 == 0 {
				continue
			}
			s3, sg3 := Create(s2, tm.j)
			if sg3 == 0 {
				continue
			}
			s4, sg4 := Create(s3, tm.i)
			if sg4 == 0 {
				continue
			}
			row, ok := b.Index(s4)
			if !ok {
				return nil, errors.Errorf("%b not in basis", s4)
			}
			m.AddAt(row, col, sg1*sg2*sg3*sg4*tm.v)
		}

		if throttler.Ok() {
			log.Debugf("four fermion %d/%d", col, b.Len())
		}
	}
	m.Compact(zeroTol)
	return m, nil
}

// TwoFermionVector builds every component of a single-particle angular momentum in basis b.
func TwoFermionVector(v angmom.Vector, b *Basis) (angmom.Vector, error) {
	var mb angmom.Vector
	for _, c := range []struct {
		dst **mat.Dense
		src *mat.Dense
	}{
		{dst: &mb.Plus, src: v.Plus},
		{dst: &mb.Minus, src: v.Minus},
		{dst: &mb.Z, src: v.Z},
	} {
		m, err := TwoFermion(c.src, b)
		if err != nil {
			return angmom.Vector{}, errors.Wrap(err, "")
		}
		*c.dst = m.Dense()
	}
	return mb, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
