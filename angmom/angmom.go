// Package angmom builds single-particle angular momentum operators of an atomic shell.
//
// Orbitals are complex spherical harmonics ordered by m = -l, ..., l.
// With spin, spin-orbital i = 2*(m+l) + s where s = 0 is up and s = 1 is down.
//
// Operators are stored in ladder form J+, J-, Jz.
// In this basis all three are real, whereas Jy = (J+ - J-)/2i is not,
// so every product needed for J^2 and L.S stays a real matrix.
package angmom

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var shells = map[string]int{"s": 0, "p": 1, "d": 2, "f": 3}

// ShellL returns the orbital angular momentum of a shell named s, p, d or f.
func ShellL(name string) (int, error) {
	l, ok := shells[name]
	if !ok {
		return -1, errors.Errorf("unknown shell %#v", name)
	}
	return l, nil
}

// NumOrbitals returns the number of spin-orbitals in a shell.
func NumOrbitals(l int) int {
	return 2 * (2*l + 1)
}

// Index returns the spin-orbital index of (m, s).
func Index(l, m, s int) int {
	return 2*(m+l) + s
}

// Quantum returns the magnetic quantum number and spin of spin-orbital i.
func Quantum(l, i int) (int, int) {
	return i/2 - l, i % 2
}

// Vector is an angular momentum operator in ladder form.
type Vector struct {
	Plus  *mat.Dense
	Minus *mat.Dense
	Z     *mat.Dense
}

// Orbital returns the orbital angular momentum l.
// If withSpin, each orbital is doubled into spin up and down.
func Orbital(l int, withSpin bool) Vector {
	n := 2*l + 1
	v := newVector(n)
	for k := range n {
		m := float64(k - l)
		v.Z.Set(k, k, m)
		if k+1 < n {
			// l+|m> = sqrt(l(l+1) - m(m+1)) |m+1>.
			c := math.Sqrt(float64(l*(l+1)) - m*(m+1))
			v.Plus.Set(k+1, k, c)
			v.Minus.Set(k, k+1, c)
		}
	}
	if !withSpin {
		return v
	}
	return v.kronRight(identity(2))
}

// Spin returns the spin-1/2 operator s over the spin-orbitals of shell l.
func Spin(l int) Vector {
	s := newVector(2)
	s.Z.Set(0, 0, 0.5)
	s.Z.Set(1, 1, -0.5)
	s.Plus.Set(0, 1, 1)
	s.Minus.Set(1, 0, 1)
	return s.kronLeft(identity(2*l + 1))
}

// SOC returns zeta l.s over the spin-orbitals of shell l.
func SOC(l int, zeta float64) *mat.Dense {
	h := Dot(Orbital(l, true), Spin(l))
	h.Scale(zeta, h)
	return h
}

func (v Vector) Add(w Vector) Vector {
	r, c := v.Z.Dims()
	sum := newVector(r)
	if rr, cc := w.Z.Dims(); rr != r || cc != c {
		panic("wrong dimensions")
	}
	sum.Plus.Add(v.Plus, w.Plus)
	sum.Minus.Add(v.Minus, w.Minus)
	sum.Z.Add(v.Z, w.Z)
	return sum
}

// Square returns Jx^2 + Jy^2 + Jz^2.
func (v Vector) Square() *mat.Dense {
	return Dot(v, v)
}

// Dot returns ax bx + ay by + az bz = az bz + (a+ b- + a- b+)/2.
func Dot(a, b Vector) *mat.Dense {
	var zz, pm, mp mat.Dense
	zz.Mul(a.Z, b.Z)
	pm.Mul(a.Plus, b.Minus)
	mp.Mul(a.Minus, b.Plus)
	pm.Add(&pm, &mp)
	pm.Scale(0.5, &pm)
	zz.Add(&zz, &pm)
	return &zz
}

// kronRight returns v (x) b component-wise.
func (v Vector) kronRight(b *mat.Dense) Vector {
	var p, m, z mat.Dense
	p.Kronecker(v.Plus, b)
	m.Kronecker(v.Minus, b)
	z.Kronecker(v.Z, b)
	return Vector{Plus: &p, Minus: &m, Z: &z}
}

// kronLeft returns a (x) v component-wise.
func (v Vector) kronLeft(a *mat.Dense) Vector {
	var p, m, z mat.Dense
	p.Kronecker(a, v.Plus)
	m.Kronecker(a, v.Minus)
	z.Kronecker(a, v.Z)
	return Vector{Plus: &p, Minus: &m, Z: &z}
}

func newVector(n int) Vector {
	return Vector{Plus: mat.NewDense(n, n, nil), Minus: mat.NewDense(n, n, nil), Z: mat.NewDense(n, n, nil)}
}

func identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := range n {
		id.Set(i, i, 1)
	}
	return id
}
