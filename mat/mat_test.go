package mat

import (
	"fmt"
	"math"
	"os"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAdd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a          *COO
		c          float64
		b          *COO
		z          *COO
		numNonZero int
	}{
		{
			a: M([][]float64{
				{1, 0},
				{0, 2},
			}),
			c: 2,
			b: M([][]float64{
				{-0.5, 0},
				{2, -1},
			}),
			z: M([][]float64{
				{0, 0},
				{4, 0},
			}),
			numNonZero: 1,
		},
		{
			a: NewCOO(2, 3),
			c: -1,
			b: M([][]float64{
				{0, 1, 0},
				{3, 0, 0},
			}),
			z: M([][]float64{
				{0, -1, 0},
				{-3, 0, 0},
			}),
			numNonZero: 2,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			test.a.Add(test.c, test.b)
			if !test.a.Equal(test.z) {
				t.Fatalf("%s, expected %s", test.a, test.z)
			}
			if len(test.a.Data) != test.numNonZero {
				t.Fatalf("%d, expected %d", len(test.a.Data), test.numNonZero)
			}
		})
	}
}

func TestFromDense(t *testing.T) {
	t.Parallel()
	a := mat.NewDense(2, 3, []float64{
		0, 1e-12, -2,
		0.5, 0, 0,
	})
	m := FromDense(a, 1e-10)
	expected := M([][]float64{
		{0, 0, -2},
		{0.5, 0, 0},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}
	if !mat.Equal(m.Dense(), mat.NewDense(2, 3, []float64{0, 0, -2, 0.5, 0, 0})) {
		t.Fatalf("%v", mat.Formatted(m.Dense()))
	}
}

func TestCompact(t *testing.T) {
	t.Parallel()
	m := NewCOO(3, 3)
	m.AddAt(2, 1, 1)
	m.AddAt(0, 0, 0.5)
	m.AddAt(2, 1, 2)
	m.AddAt(1, 2, 1e-12)
	m.AddAt(0, 0, -0.5)
	m.Compact(1e-10)

	expected := M([][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 3, 0},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}
	if v := m.At(2, 1); v != 3 {
		t.Fatalf("%f", v)
	}
	if v := m.At(1, 1); v != 0 {
		t.Fatalf("%f", v)
	}
}

func TestEigenSym(t *testing.T) {
	t.Parallel()
	// The 1D tight binding ring of length 4 has eigenvalues -2cos(2 pi k/4).
	m := M([][]float64{
		{0, -1, 0, -1},
		{-1, 0, -1, 0},
		{0, -1, 0, -1},
		{-1, 0, -1, 0},
	})
	vvs, err := EigenSym(m.Dense())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	vals := []float64{-2, 0, 0, 2}
	for i, vv := range vvs {
		if math.Abs(vv.Val-vals[i]) > 1e-12 {
			t.Fatalf("%d %f %f", i, vv.Val, vals[i])
		}
		var norm float64
		for _, v := range vv.Vec {
			norm += v * v
		}
		if math.Abs(norm-1) > 1e-12 {
			t.Fatalf("%d %f", i, norm)
		}
	}

	// The expectation value of the matrix itself is the eigenvalue.
	for i, e := range Expect(m.Dense(), vvs) {
		if math.Abs(e-vals[i]) > 1e-12 {
			t.Fatalf("%d %f %f", i, e, vals[i])
		}
	}

	lo, hi := Gerschgorin(m)
	if !(lo <= vvs[0].Val && vvs[len(vvs)-1].Val <= hi) {
		t.Fatalf("%f %f %#v", lo, hi, vvs)
	}
}

func TestEigenSymNotSymmetric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a mat.Matrix
	}{
		{a: mat.NewDense(2, 2, []float64{1, 2, 0, 1})},
		{a: mat.NewDense(2, 3, nil)},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", mat.Formatted(test.a)), func(t *testing.T) {
			t.Parallel()
			if _, err := EigenSym(test.a); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestChangeBasis(t *testing.T) {
	t.Parallel()
	a := mat.NewDense(2, 2, []float64{1, 2, 2, 1})
	s := 1 / math.Sqrt2
	v := mat.NewDense(2, 2, []float64{s, s, -s, s})
	vav := ChangeBasis(a, v)
	expected := mat.NewDense(2, 2, []float64{-1, 0, 0, 3})
	if !mat.EqualApprox(vav, expected, 1e-12) {
		t.Fatalf("%v, expected %v", mat.Formatted(vav), mat.Formatted(expected))
	}
}

func TestWriteReadCOO(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	m := M([][]float64{
		{3.8, 0, -0.12},
		{0, 0, 0},
		{-0.12, 0, 4.04},
	})
	if err := m.WriteCOO(dir); err != nil {
		t.Fatalf("%+v", err)
	}
	read, err := ReadCOO(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !read.Equal(m) {
		t.Fatalf("%s, expected %s", read, m)
	}
}

func TestAll(t *testing.T) {
	t.Parallel()
	m := M([][]float64{
		{0, 2},
		{-1, 0},
	})
	type element struct {
		ij [2]int
		v  float64
	}
	var got []element
	for ij, v := range m.All() {
		got = append(got, element{ij: ij, v: v})
	}
	expected := []element{{ij: [2]int{0, 1}, v: 2}, {ij: [2]int{1, 0}, v: -1}}
	if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", expected) {
		t.Fatalf("%v, expected %v", got, expected)
	}

	// Breaking out of the loop stops the iteration.
	n := 0
	for range m.All() {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("%d", n)
	}
}
