package mat

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"

	// SymmetryTol is the largest |a_ij - a_ji| accepted by EigenSym.
	SymmetryTol = 1e-5
)

type vRowCol struct {
	v   float64
	row int
	col int
}

// COO is a real sparse matrix in coordinate format.
// Data is kept in row major order by every method except AddAt.
type COO struct {
	rows int
	cols int
	Data []vRowCol

	m map[[2]int]float64
}

func M(dense [][]float64) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]vRowCol, 0), m: make(map[[2]int]float64)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
		}
	}
	return m
}

func NewCOO(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols, Data: make([]vRowCol, 0), m: make(map[[2]int]float64)}
}

// FromDense converts a gonum matrix, dropping entries with |v| <= tol.
func FromDense(a mat.Matrix, tol float64) *COO {
	r, c := a.Dims()
	m := NewCOO(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); math.Abs(v) > tol {
				m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
			}
		}
	}
	return m
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

// AddAt accumulates v into element (i, j).
// Duplicates are summed by the next call to Compact.
func (m *COO) AddAt(i, j int, v float64) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("%d %d out of %d %d", i, j, m.rows, m.cols))
	}
	m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
}

// Compact sorts Data, merges duplicate coordinates and drops elements with |v| <= tol.
func (m *COO) Compact(tol float64) {
	slices.SortStableFunc(m.Data, rowMajor)
	merged := m.Data[:0]
	for _, v := range m.Data {
		if n := len(merged); n > 0 && merged[n-1].row == v.row && merged[n-1].col == v.col {
			merged[n-1].v += v.v
			continue
		}
		merged = append(merged, v)
	}
	m.Data = slices.DeleteFunc(merged, func(v vRowCol) bool {
		return math.Abs(v.v) <= tol
	})
}

func (m *COO) At(i, j int) float64 {
	k, ok := slices.BinarySearchFunc(m.Data, vRowCol{row: i, col: j}, rowMajor)
	if !ok {
		return 0
	}
	return m.Data[k].v
}

func (m *COO) Trace() float64 {
	var t float64
	for _, v := range m.Data {
		if v.row == v.col {
			t += v.v
		}
	}
	return t
}

func (a *COO) Equal(b *COO) bool {
	return a.EqualApprox(b, 0)
}

// EqualApprox reports whether a and b have the same shape and sparsity pattern, with values within tol.
func (a *COO) EqualApprox(b *COO, tol float64) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		bv := b.Data[i]
		if av.row != bv.row || av.col != bv.col {
			return false
		}
		if math.Abs(av.v-bv.v) > tol {
			return false
		}
	}
	return true
}

// Add sets a = a + c*b.
func (a *COO) Add(c float64, b *COO) {
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("wrong dimensions %dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	if a.m == nil {
		a.m = make(map[[2]int]float64)
	}
	clear(a.m)
	for _, v := range b.Data {
		a.m[[2]int{v.row, v.col}] = v.v
	}

	for i, av := range a.Data {
		byx := [2]int{av.row, av.col}
		bv := a.m[byx]
		delete(a.m, byx)

		a.Data[i].v = av.v + c*bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	for yx, bv := range a.m {
		if c*bv == 0 {
			continue
		}
		a.Data = append(a.Data, vRowCol{v: c * bv, row: yx[0], col: yx[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
	clear(a.m)
}

func (m *COO) Copy() *COO {
	c := NewCOO(m.rows, m.cols)
	c.Data = append(c.Data, m.Data...)
	return c
}

func (m *COO) Dense() *mat.Dense {
	dense := mat.NewDense(m.rows, m.cols, nil)
	for _, v := range m.Data {
		dense.Set(v.row, v.col, dense.At(v.row, v.col)+v.v)
	}
	return dense
}

// All yields the stored elements with their (row, col) position.
func (m *COO) All() iter.Seq2[[2]int, float64] {
	return func(yield func([2]int, float64) bool) {
		for _, v := range m.Data {
			if !yield([2]int{v.row, v.col}, v.v) {
				return
			}
		}
	}
}

func (m *COO) WriteCOO(dir string) error {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", m.rows, m.cols)), 0644); err != nil {
		return errors.Wrap(err, "")
	}

	cooPath := filepath.Join(dir, FnameCOO)
	cooF, err := os.Create(cooPath)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := csv.NewWriter(cooF)
	for _, v := range m.Data {
		if err1 := w.Write([]string{FormatFloat(v.v), strconv.Itoa(v.row), strconv.Itoa(v.col)}); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}
	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}

	if err1 := cooF.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

type COOReader struct {
	f *os.File
	r *csv.Reader
	i int

	prev vRowCol
}

func NewCOOReader(dir string) (*COOReader, error) {
	r := &COOReader{i: -1}

	cooPath := filepath.Join(dir, FnameCOO)
	var err error
	r.f, err = os.Open(cooPath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r.r = csv.NewReader(r.f)
	return r, nil
}

func (r *COOReader) Close() error {
	return r.f.Close()
}

// Read returns the next element.
// An empty value or row field repeats the previous one.
func (r *COOReader) Read() (vRowCol, error) {
	r.i++
	record, err := r.r.Read()
	if err == io.EOF {
		return vRowCol{}, io.EOF
	}
	if err != nil {
		return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d", r.i))
	}
	if len(record) != 3 {
		return vRowCol{}, errors.Errorf("%d %#v", r.i, record)
	}

	var vrc vRowCol
	switch {
	case record[0] == "":
		vrc.v = r.prev.v
	default:
		vrc.v, err = strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	switch {
	case record[1] == "":
		vrc.row = r.prev.row
	default:
		vrc.row, err = strconv.Atoi(record[1])
		if err != nil {
			return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	vrc.col, err = strconv.Atoi(record[2])
	if err != nil {
		return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
	}

	r.prev = vrc
	return vrc, nil
}

func ReadCOO(dir string) (*COO, error) {
	m := NewCOO(0, 0)
	var err error
	m.rows, m.cols, err = readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r, err := NewCOOReader(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer r.Close()
	for {
		v, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		m.Data = append(m.Data, v)
	}

	return m, nil
}

func readShape(dir string) (int, int, error) {
	f, err := os.Open(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	if len(records) == 0 {
		return -1, -1, errors.Errorf("empty")
	}
	row := records[0]

	if len(row) != 2 {
		return -1, -1, errors.Errorf("%#v", row)
	}
	i, err := strconv.Atoi(row[0])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}
	j, err := strconv.Atoi(row[1])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}

	return i, j, nil
}

func (m *COO) String() string {
	dense := m.Dense()
	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			cs = append(cs, format(dense.At(i, j)))
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

func rowMajor(a, b vRowCol) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := strconv.FormatFloat(v, 'g', 6, 64)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}

// FormatFloat formats v with the fewest digits that parse back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
