package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/fumin/atomed/mat"
	"github.com/fumin/atomed/store"
)

func TestWriteReadEig(t *testing.T) {
	t.Parallel()
	vvs := []mat.ValVec{
		{Val: -1.5, Vec: []float64{0.6, 0.8, 0}},
		{Val: 0.1, Vec: []float64{-0.8, 0.6, 0}},
		{Val: 2, Vec: []float64{0, 0, 1}},
	}
	fpath := filepath.Join(t.TempDir(), fnameEigen)
	if err := writeEig(fpath, vvs); err != nil {
		t.Fatalf("%+v", err)
	}
	read, err := readEig(fpath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(vvs, read); diff != "" {
		t.Fatalf("%s", diff)
	}
}

func TestConfigure(t *testing.T) {
	t.Parallel()
	fpath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(fpath, []byte("shell: d\noccupancy: 1\nslater: [5, 7, 4]\n"), 0644); err != nil {
		t.Fatalf("%+v", err)
	}
	occupancy, soc := 2, 0.
	cfg, err := configure(options{config: fpath, occupancy: &occupancy, soc: &soc, logLevel: "debug"})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if p.Shell != "d" || p.Orbitals != 10 || p.Occupancy != 2 || p.SOC != 0 || cfg.Log.Level != "debug" {
		t.Fatalf("%#v %#v", p, cfg)
	}

	// Unset flags keep the configuration file.
	cfg, err = configure(options{config: fpath})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if cfg.Occupancy != 1 || cfg.SOC != 0.2 {
		t.Fatalf("%#v", cfg)
	}

	if _, err := configure(options{config: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMainWithErr(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "db.sqlite")
	var b bytes.Buffer
	if err := mainWithErr(&b, options{dir: outDir, db: dbPath, logLevel: "warning"}); err != nil {
		t.Fatalf("%+v", err)
	}

	out := b.String()
	for _, s := range []string{
		"15 eigenvalues and 15 eigenvectors 15 elements long.\n",
		"#  \t     E  \t  S(S+1)\t  L(L+1)\n",
		"0  \t   3.800\t   2.000\t   2.000\n",
		"With SOC\n",
		"#  \t       E\t  S(S+1)\t  L(L+1)\t  J(J+1)\n",
		"3P    \t  9\t   3.800\n",
		"3P1   \t  3\t   3.700\n",
	} {
		if !strings.Contains(out, s) {
			t.Fatalf("%q not in %s", s, out)
		}
	}

	for _, fname := range []string{fnameEigen, fnameEigenSOC, fnameLevels, filepath.Join(dirH, mat.FnameCOO), filepath.Join(dirHSOC, mat.FnameShape)} {
		if _, err := os.Stat(filepath.Join(outDir, fname)); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	vvs, err := readEig(filepath.Join(outDir, fnameEigen))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(vvs) != 15 || len(vvs[0].Vec) != 15 {
		t.Fatalf("%d", len(vvs))
	}
	h, err := mat.ReadCOO(filepath.Join(outDir, dirH))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if h.Rows() != 15 || h.Cols() != 15 {
		t.Fatalf("%d %d", h.Rows(), h.Cols())
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	levels, err := db.LoadLevels(ctx, 1, true)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(levels) != 15 {
		t.Fatalf("%#v", levels)
	}
}

func readEig(fpath string) ([]mat.ValVec, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	r := csv.NewReader(f)

	record, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	vvs := make([]mat.ValVec, len(record))
	for j, s := range record {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		vvs[j].Val = v
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			vvs[j].Vec = append(vvs[j].Vec, v)
		}
	}

	return vvs, nil
}
