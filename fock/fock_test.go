package fock

import (
	"flag"
	"fmt"
	"math/bits"
	"testing"

	"github.com/fumin/tensor"
	"github.com/google/go-cmp/cmp"
	"github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/fumin/atomed/angmom"
	emat "github.com/fumin/atomed/mat"
)

func TestByN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		norb int
		n    int
	}{
		{norb: 6, n: 2},
		{norb: 6, n: 0},
		{norb: 6, n: 6},
		{norb: 10, n: 3},
		{norb: 14, n: 7},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %d", test.norb, test.n), func(t *testing.T) {
			t.Parallel()
			b, err := ByN(test.norb, test.n)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if b.Len() != combin.Binomial(test.norb, test.n) {
				t.Fatalf("%d, expected %d", b.Len(), combin.Binomial(test.norb, test.n))
			}
			for i, s := range b.States {
				if bits.OnesCount64(s) != test.n {
					t.Fatalf("%d %b", i, s)
				}
				if j, ok := b.Index(s); !ok || j != i {
					t.Fatalf("%d %d %v", i, j, ok)
				}
			}
		})
	}
}

func TestByNOrder(t *testing.T) {
	t.Parallel()
	b, err := ByN(4, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := []uint64{0b0011, 0b0101, 0b1001, 0b0110, 0b1010, 0b1100}
	if diff := cmp.Diff(expected, b.States); diff != "" {
		t.Fatalf("%s", diff)
	}
	if diff := cmp.Diff([]byte{0, 1, 1, 0}, b.Occupation(3)); diff != "" {
		t.Fatalf("%s", diff)
	}
	if s := b.String(); s != "[[1 1 0 0]\n [1 0 1 0]\n [1 0 0 1]\n [0 1 1 0]\n [0 1 0 1]\n [0 0 1 1]]" {
		t.Fatalf("%s", s)
	}
}

func TestByNErrors(t *testing.T) {
	t.Parallel()
	for _, nn := range [][2]int{{6, 7}, {6, -1}, {0, 0}, {65, 1}} {
		if _, err := ByN(nn[0], nn[1]); err == nil {
			t.Fatalf("%v expected error", nn)
		}
	}
	if _, err := NewBasis(2, []uint64{0b01, 0b01}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewBasis(2, []uint64{0b100}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateAnnihilate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		create bool
		state  uint64
		i      int
		result uint64
		sign   float64
	}{
		{create: true, state: 0b101, i: 1, result: 0b111, sign: -1},
		{create: true, state: 0b101, i: 3, result: 0b1101, sign: 1},
		{create: true, state: 0b101, i: 0, result: 0b101, sign: 0},
		{create: false, state: 0b101, i: 2, result: 0b001, sign: -1},
		{create: false, state: 0b101, i: 0, result: 0b100, sign: 1},
		{create: false, state: 0b101, i: 1, result: 0b101, sign: 0},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test), func(t *testing.T) {
			t.Parallel()
			op := Annihilate
			if test.create {
				op = Create
			}
			s, sg := op(test.state, test.i)
			if sg != test.sign {
				t.Fatalf("%f, expected %f", sg, test.sign)
			}
			if sg != 0 && s != test.result {
				t.Fatalf("%b, expected %b", s, test.result)
			}
		})
	}
}

func TestTwoFermion(t *testing.T) {
	t.Parallel()
	// Hopping c+_0 c_2 on three orbitals with two electrons.
	b, err := ByN(3, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hop := mat.NewDense(3, 3, nil)
	hop.Set(0, 2, 1)
	m, err := TwoFermion(hop, b)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// States are 011, 101, 110, and c+_0 c_2 |110> = -|011>, since orbital 1 sits between them.
	expected := emat.M([][]float64{
		{0, 0, -1},
		{0, 0, 0},
		{0, 0, 0},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}

	// The number operator is n times the identity.
	number := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	m, err = TwoFermion(number, b)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected = emat.M([][]float64{
		{2, 0, 0},
		{0, 2, 0},
		{0, 0, 2},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}

	if _, err := TwoFermion(mat.NewDense(2, 2, nil), b); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFourFermion(t *testing.T) {
	t.Parallel()
	// U_0101 + U_1010 = 1 is the density-density interaction n0 n1.
	u := tensor.Zeros(3, 3, 3, 3)
	u.SetAt([]int{0, 1, 0, 1}, 0.5)
	u.SetAt([]int{1, 0, 1, 0}, 0.5)
	b, err := ByN(3, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	m, err := FourFermion(u, b)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// 011 has orbitals 0 and 1 occupied, and is the first state.
	expected := emat.M([][]float64{
		{1, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}

	// Exchange U_0110 + U_1001 = 1 is -n0 n1 on same spin orbitals.
	u = tensor.Zeros(3, 3, 3, 3)
	u.SetAt([]int{0, 1, 1, 0}, 0.5)
	u.SetAt([]int{1, 0, 0, 1}, 0.5)
	m, err = FourFermion(u, b)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected = emat.M([][]float64{
		{-1, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})
	if !m.Equal(expected) {
		t.Fatalf("%s, expected %s", m, expected)
	}

	if _, err := FourFermion(tensor.Zeros(2, 2, 2, 2), b); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTwoFermionVector(t *testing.T) {
	t.Parallel()
	// A single p electron carries l(l+1) = 2.
	const l = 1
	b, err := ByN(angmom.NumOrbitals(l), 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	v, err := TwoFermionVector(angmom.Orbital(l, true), b)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	l2 := v.Square()
	for i := range b.Len() {
		for j := range b.Len() {
			expected := 0.
			if i == j {
				expected = 2
			}
			if d := l2.At(i, j) - expected; d > 1e-12 || d < -1e-12 {
				t.Fatalf("%d %d %f", i, j, l2.At(i, j))
			}
		}
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	logging.SetLevel(logging.WARNING, "fock")

	m.Run()
}
