// Package report prints and plots the results of a diagonalization.
package report

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/fumin/atomed"
	"github.com/fumin/atomed/fock"
)

func WriteBasis(w io.Writer, b *fock.Basis) error {
	if _, err := fmt.Fprintln(w, b); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// WriteSummary writes the number of eigenpairs and the length of the eigenvectors.
func WriteSummary(w io.Writer, s atomed.Spectrum) error {
	n := len(s.Vectors)
	var dim int
	if n > 0 {
		dim = len(s.Vectors[0].Vec)
	}
	if _, err := fmt.Fprintf(w, "%d eigenvalues and %d eigenvectors %d elements long.\n", n, n, dim); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// WriteTable writes one row per level with its energy, S(S+1), L(L+1), and J(J+1) if withJ.
func WriteTable(w io.Writer, levels []atomed.Level, withJ bool) error {
	var err error
	write := func(format string, args ...any) {
		if err != nil {
			return
		}
		if _, err1 := fmt.Fprintf(w, format, args...); err1 != nil {
			err = errors.Wrap(err1, "")
		}
	}

	if withJ {
		write("%-3s\t%8s\t%8s\t%8s\t%8s\n", "#", "E", "S(S+1)", "L(L+1)", "J(J+1)")
	} else {
		write("%-3s\t%8s\t%8s\t%8s\n", "#  ", "E  ", "S(S+1)", "L(L+1)")
	}
	for _, lv := range levels {
		if withJ {
			write("%-3d\t%8.3f\t%8.3f\t%8.3f\t%8.3f\n", lv.Index, lv.Energy, lv.S2, lv.L2, lv.J2)
		} else {
			write("%-3d\t%8.3f\t%8.3f\t%8.3f\n", lv.Index, lv.Energy, lv.S2, lv.L2)
		}
	}
	return err
}

// WriteMultiplets writes the term symbol, degeneracy and energy of every multiplet.
func WriteMultiplets(w io.Writer, mus []atomed.Multiplet, withJ bool) error {
	if _, err := fmt.Fprintf(w, "%-6s\t%3s\t%8s\n", "term", "deg", "E"); err != nil {
		return errors.Wrap(err, "")
	}
	for _, mu := range mus {
		if _, err := fmt.Fprintf(w, "%-6s\t%3d\t%8.3f\n", mu.Term(withJ), mu.Degeneracy(), mu.Energy); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}
