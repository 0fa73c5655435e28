package mat

import (
	"cmp"
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// ValVec is an eigenvalue and its normalized eigenvector.
type ValVec struct {
	Val float64
	Vec []float64
}

// IsSymmetric reports whether a is square and |a_ij - a_ji| <= tol for all i, j.
func IsSymmetric(a mat.Matrix, tol float64) bool {
	r, c := a.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if !scalar.EqualWithinAbs(a.At(i, j), a.At(j, i), tol) {
				return false
			}
		}
	}
	return true
}

// EigenSym diagonalizes the real symmetric matrix a.
// The result is sorted by ascending eigenvalue.
func EigenSym(a mat.Matrix) ([]ValVec, error) {
	r, c := a.Dims()
	if r != c {
		return nil, errors.Errorf("not square %d %d", r, c)
	}
	if !IsSymmetric(a, SymmetryTol) {
		return nil, errors.Errorf("not symmetric")
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			sym.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, errors.Errorf("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	vvs := make([]ValVec, 0, len(vals))
	for i, v := range vals {
		vec := make([]float64, 0, r)
		for j := 0; j < r; j++ {
			vec = append(vec, vecs.At(j, i))
		}
		vvs = append(vvs, ValVec{Val: v, Vec: vec})
	}
	slices.SortStableFunc(vvs, func(a, b ValVec) int { return cmp.Compare(a.Val, b.Val) })

	return vvs, nil
}

// Vectors returns the matrix whose i-th column is vvs[i].Vec.
func Vectors(vvs []ValVec) *mat.Dense {
	v := mat.NewDense(len(vvs[0].Vec), len(vvs), nil)
	for j, vv := range vvs {
		v.SetCol(j, vv.Vec)
	}
	return v
}

// ChangeBasis returns v^T a v.
func ChangeBasis(a, v mat.Matrix) *mat.Dense {
	var av, vav mat.Dense
	av.Mul(a, v)
	vav.Mul(v.T(), &av)
	return &vav
}

func Diag(a mat.Matrix) []float64 {
	r, c := a.Dims()
	d := make([]float64, 0, min(r, c))
	for i := range min(r, c) {
		d = append(d, a.At(i, i))
	}
	return d
}

// Expect returns <v|a|v> for every eigenvector in vvs.
func Expect(a mat.Matrix, vvs []ValVec) []float64 {
	return Diag(ChangeBasis(a, Vectors(vvs)))
}

// Gerschgorin returns an interval that contains every eigenvalue of m.
// Theorem A3, Bounds for the eigenvalues of a matrix, Kenneth R. Garren.
func Gerschgorin(m *COO) (float64, float64) {
	centers := make([]float64, m.rows)
	radii := make([]float64, m.rows)
	for _, v := range m.Data {
		switch {
		case v.row == v.col:
			centers[v.row] += v.v
		default:
			radii[v.row] += math.Abs(v.v)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, c := range centers {
		lo = min(lo, c-radii[i])
		hi = max(hi, c+radii[i])
	}
	return lo, hi
}
