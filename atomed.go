// Package atomed diagonalizes interacting electrons in a single atomic shell.
//
// A Model holds the Coulomb Hamiltonian built from Slater integrals, the spin-orbit coupling,
// and the many-body spin, orbital and total angular momentum in the Fock basis of a fixed electron count.
// Solve diagonalizes the Hamiltonian with or without spin-orbit coupling and evaluates
// S(S+1), L(L+1) and J(J+1) on every eigenstate.
package atomed

import (
	"math"

	"github.com/fumin/tensor"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	gmat "gonum.org/v1/gonum/mat"

	"github.com/fumin/atomed/angmom"
	"github.com/fumin/atomed/coulomb"
	"github.com/fumin/atomed/fock"
	"github.com/fumin/atomed/mat"
)

var log = logging.MustGetLogger("atomed")

// Params are the physical parameters of a shell.
type Params struct {
	// Shell is one of s, p, d, f.
	Shell string
	// Orbitals is the number of spin-orbitals, 2(2l+1).
	Orbitals int
	// Occupancy is the number of electrons.
	Occupancy int
	// Slater are the integrals F^0, F^2, ..., F^2l.
	Slater []float64
	// SOC is the spin-orbit coupling strength zeta.
	SOC float64
}

// DefaultParams returns two electrons in a p shell.
func DefaultParams() Params {
	return Params{Shell: "p", Orbitals: 6, Occupancy: 2, Slater: []float64{4, 1}, SOC: 0.2}
}

func (p Params) Validate() error {
	l, err := angmom.ShellL(p.Shell)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if norb := angmom.NumOrbitals(l); p.Orbitals != norb {
		return errors.Errorf("shell %s has %d orbitals, got %d", p.Shell, norb, p.Orbitals)
	}
	if p.Occupancy < 0 || p.Occupancy > p.Orbitals {
		return errors.Errorf("occupancy %d of %d orbitals", p.Occupancy, p.Orbitals)
	}
	if len(p.Slater) != l+1 {
		return errors.Errorf("shell %s needs %d Slater integrals, got %#v", p.Shell, l+1, p.Slater)
	}
	for _, v := range append([]float64{p.SOC}, p.Slater...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("%#v", p)
		}
	}
	return nil
}

// Model is a shell Hamiltonian and its angular momentum operators in the Fock basis.
type Model struct {
	Params Params
	L      int

	Umat  *tensor.Dense
	Basis *fock.Basis

	// H is the Coulomb interaction and HSOC the spin-orbit coupling.
	H    *mat.COO
	HSOC *mat.COO

	OpL angmom.Vector
	OpS angmom.Vector
	OpJ angmom.Vector
	L2  *gmat.Dense
	S2  *gmat.Dense
	J2  *gmat.Dense
}

func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	m := &Model{Params: p}
	var err error
	m.L, err = angmom.ShellL(p.Shell)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	m.Umat, err = coulomb.UmatSlater(p.Shell, p.Slater...)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	m.Basis, err = fock.ByN(p.Orbitals, p.Occupancy)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	log.Debugf("%s%d: %d states", p.Shell, p.Occupancy, m.Basis.Len())

	m.H, err = fock.FourFermion(m.Umat, m.Basis)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	m.HSOC, err = fock.TwoFermion(angmom.SOC(m.L, p.SOC), m.Basis)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	orb := angmom.Orbital(m.L, true)
	spin := angmom.Spin(m.L)
	tot := orb.Add(spin)
	for _, op := range []struct {
		dst *angmom.Vector
		sq  **gmat.Dense
		src angmom.Vector
	}{
		{dst: &m.OpL, sq: &m.L2, src: orb},
		{dst: &m.OpS, sq: &m.S2, src: spin},
		{dst: &m.OpJ, sq: &m.J2, src: tot},
	} {
		*op.dst, err = fock.TwoFermionVector(op.src, m.Basis)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		*op.sq = op.dst.Square()
	}
	return m, nil
}

// Hamiltonian returns H, or H + HSOC if withSOC.
func (m *Model) Hamiltonian(withSOC bool) *mat.COO {
	h := m.H.Copy()
	if withSOC {
		h.Add(1, m.HSOC)
	}
	return h
}

// Level is an eigenstate and its angular momentum expectation values.
type Level struct {
	Index  int
	Energy float64
	S2     float64
	L2     float64
	J2     float64
}

// Spectrum is the full diagonalization of a Hamiltonian.
type Spectrum struct {
	SOC     bool
	Levels  []Level
	Vectors []mat.ValVec
	// Trace is the trace of the Hamiltonian matrix.
	Trace float64
}

// Energies returns the eigenvalues in ascending order.
func (s Spectrum) Energies() []float64 {
	e := make([]float64, 0, len(s.Levels))
	for _, lv := range s.Levels {
		e = append(e, lv.Energy)
	}
	return e
}

// Solve diagonalizes the Hamiltonian and evaluates S(S+1), L(L+1), J(J+1) on every eigenstate.
func (m *Model) Solve(withSOC bool) (Spectrum, error) {
	h := m.Hamiltonian(withSOC)
	vvs, err := mat.EigenSym(h.Dense())
	if err != nil {
		return Spectrum{}, errors.Wrap(err, "")
	}
	if len(vvs) != m.Basis.Len() {
		return Spectrum{}, errors.Errorf("%d eigenvalues, %d states", len(vvs), m.Basis.Len())
	}

	const tol = 1e-8
	lo, hi := mat.Gerschgorin(h)
	if vvs[0].Val < lo-tol || vvs[len(vvs)-1].Val > hi+tol {
		return Spectrum{}, errors.Errorf("eigenvalues [%f, %f] outside Gerschgorin bounds [%f, %f]", vvs[0].Val, vvs[len(vvs)-1].Val, lo, hi)
	}

	s := Spectrum{SOC: withSOC, Vectors: vvs, Trace: h.Trace()}
	s2 := mat.Expect(m.S2, vvs)
	l2 := mat.Expect(m.L2, vvs)
	j2 := mat.Expect(m.J2, vvs)
	for i, vv := range vvs {
		s.Levels = append(s.Levels, Level{Index: i, Energy: vv.Val, S2: s2[i], L2: l2[i], J2: j2[i]})
	}

	if sum := floats.Sum(s.Energies()); math.Abs(sum-s.Trace) > 1e-6*max(1, math.Abs(s.Trace)) {
		return Spectrum{}, errors.Errorf("eigenvalue sum %f, trace %f", sum, s.Trace)
	}
	log.Debugf("soc %v: E0 %f, bounds [%f, %f]", withSOC, vvs[0].Val, lo, hi)
	return s, nil
}
