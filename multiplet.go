package atomed

import (
	"fmt"
	"math"
)

const (
	// DegeneracyTol is the energy difference below which levels form one multiplet.
	DegeneracyTol = 1e-5

	// termLetters are the spectroscopic letters of L = 0, 1, 2, ...
	termLetters = "SPDFGHIKLMNOQRTUV"

	// quantumTol is how far from a (half) integer a quantum number may be and still label a term.
	quantumTol = 1e-3
)

// Multiplet is a set of degenerate levels.
type Multiplet struct {
	Energy float64
	Levels []Level

	// S, L, J solve x(x+1) = <X^2> averaged over the levels.
	S float64
	L float64
	J float64
}

func (mu Multiplet) Degeneracy() int { return len(mu.Levels) }

// Term returns the term symbol such as 3P, or 3P0 if withJ.
// When L and S are not good quantum numbers, only J=... is returned, and ? if neither is.
func (mu Multiplet) Term(withJ bool) string {
	s, sOK := halfInteger(mu.S)
	l, lOK := integer(mu.L)
	j, jOK := halfInteger(mu.J)
	switch {
	case sOK && lOK && l < len(termLetters):
		t := fmt.Sprintf("%d%c", int(math.Round(2*s+1)), termLetters[l])
		if withJ && jOK {
			t += formatHalf(j)
		}
		return t
	case withJ && jOK:
		return "J=" + formatHalf(j)
	default:
		return "?"
	}
}

// Multiplets groups consecutive levels whose energies differ by at most tol.
// Levels must be sorted by energy.
func Multiplets(levels []Level, tol float64) []Multiplet {
	mus := make([]Multiplet, 0)
	for _, lv := range levels {
		n := len(mus)
		if n > 0 && math.Abs(lv.Energy-mus[n-1].Levels[len(mus[n-1].Levels)-1].Energy) <= tol {
			mus[n-1].Levels = append(mus[n-1].Levels, lv)
			continue
		}
		mus = append(mus, Multiplet{Levels: []Level{lv}})
	}

	for i := range mus {
		mu := &mus[i]
		var e, s2, l2, j2 float64
		for _, lv := range mu.Levels {
			e += lv.Energy
			s2 += lv.S2
			l2 += lv.L2
			j2 += lv.J2
		}
		n := float64(len(mu.Levels))
		mu.Energy = e / n
		mu.S = quantumNumber(s2 / n)
		mu.L = quantumNumber(l2 / n)
		mu.J = quantumNumber(j2 / n)
	}
	return mus
}

// quantumNumber solves x(x+1) = v for x >= 0.
func quantumNumber(v float64) float64 {
	return (math.Sqrt(1+4*max(v, 0)) - 1) / 2
}

func integer(x float64) (int, bool) {
	r := math.Round(x)
	return int(r), math.Abs(x-r) < quantumTol
}

func halfInteger(x float64) (float64, bool) {
	r := math.Round(2*x) / 2
	return r, math.Abs(x-r) < quantumTol
}

func formatHalf(x float64) string {
	if x == math.Trunc(x) {
		return fmt.Sprintf("%d", int(x))
	}
	return fmt.Sprintf("%d/2", int(math.Round(2*x)))
}
