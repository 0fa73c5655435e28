package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/fumin/atomed"
	"github.com/fumin/atomed/config"
	"github.com/fumin/atomed/mat"
	"github.com/fumin/atomed/report"
	"github.com/fumin/atomed/store"
)

const (
	fnameEigen    = "eig.csv"
	fnameEigenSOC = "eig_soc.csv"
	fnameLevels   = "levels.png"
	dirH          = "h"
	dirHSOC       = "h_soc"

	dbTimeout = time.Minute
)

var log = logging.MustGetLogger("run")
var formatter = logging.MustStringFormatter(`%{message}`)

var (
	app = kingpin.New("run", "exact diagonalization of electrons in an atomic shell")

	configPath = app.Flag("config", "YAML configuration file").ExistingFile()
	shell      = app.Flag("shell", "shell, one of s, p, d, f").String()
	occupancy  = app.Flag("occupancy", "number of electrons").IsSetByUser(&occupancySet).Int()
	slater     = app.Flag("slater", "Slater integrals F0, F2, ..., repeat for each").Float64List()
	soc        = app.Flag("soc", "spin-orbit coupling strength").IsSetByUser(&socSet).Float64()
	outDir     = app.Flag("dir", "write eigenvectors, hamiltonians and a level plot to this directory").String()
	dbPath     = app.Flag("db", "archive the run in this sqlite database").String()
	logLevel   = app.Flag("log-level", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Enum("critical", "error", "warning", "notice", "info", "debug")

	occupancySet bool
	socSet       bool
)

// options are the command line flags, empty or nil when unset.
type options struct {
	config    string
	shell     string
	occupancy *int
	slater    []float64
	soc       *float64
	dir       string
	db        string
	logLevel  string
}

// configure loads the configuration file and overrides it with the flags that are set.
func configure(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		cfg, err = config.Load(opts.config)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
	}

	if opts.shell != "" {
		cfg.Shell = opts.shell
	}
	if opts.occupancy != nil {
		cfg.Occupancy = *opts.occupancy
	}
	if len(opts.slater) > 0 {
		cfg.Slater = opts.slater
	}
	if opts.soc != nil {
		cfg.SOC = *opts.soc
	}
	if opts.dir != "" {
		cfg.Output.Dir = opts.dir
	}
	if opts.db != "" {
		cfg.Output.DB = opts.db
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func writeOutputs(dir string, m *atomed.Model, spectra ...atomed.Spectrum) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	for _, s := range spectra {
		fname := fnameEigen
		if s.SOC {
			fname = fnameEigenSOC
		}
		if err := writeEig(filepath.Join(dir, fname), s.Vectors); err != nil {
			return errors.Wrap(err, "")
		}
	}

	for _, h := range []struct {
		dir string
		m   *mat.COO
	}{
		{dir: dirH, m: m.H},
		{dir: dirHSOC, m: m.HSOC},
	} {
		hDir := filepath.Join(dir, h.dir)
		if err := os.MkdirAll(hDir, os.ModePerm); err != nil {
			return errors.Wrap(err, "")
		}
		if err := h.m.WriteCOO(hDir); err != nil {
			return errors.Wrap(err, "")
		}
	}

	if err := report.PlotLevels(filepath.Join(dir, fnameLevels), spectra...); err != nil {
		return errors.Wrap(err, "")
	}
	log.Infof("wrote %s", dir)
	return nil
}

func archive(dbPath string, m *atomed.Model, spectra ...atomed.Spectrum) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	run, err := db.SaveRun(ctx, m.Params, spectra...)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := db.SaveMatrix(ctx, run, dirH, m.H); err != nil {
		return errors.Wrap(err, "")
	}
	if err := db.SaveMatrix(ctx, run, dirHSOC, m.HSOC); err != nil {
		return errors.Wrap(err, "")
	}
	log.Infof("run %d saved to %s", run, dbPath)
	return nil
}

// writeEig writes the eigenvalues in the first row, followed by the eigenvectors as columns.
func writeEig(fpath string, vvs []mat.ValVec) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	row := make([]string, len(vvs))
	for j, vv := range vvs {
		row[j] = mat.FormatFloat(vv.Val)
	}
	if err1 := w.Write(row); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	for i := range len(vvs[0].Vec) {
		for j, vv := range vvs {
			row[j] = mat.FormatFloat(vv.Vec[i])
		}
		if err1 := w.Write(row); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	logging.SetFormatter(formatter)
	logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))

	opts := options{
		config:   *configPath,
		shell:    *shell,
		slater:   *slater,
		dir:      *outDir,
		db:       *dbPath,
		logLevel: *logLevel,
	}
	if occupancySet {
		opts.occupancy = occupancy
	}
	if socSet {
		opts.soc = soc
	}
	if err := mainWithErr(os.Stdout, opts); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr(w io.Writer, opts options) error {
	cfg, err := configure(opts)
	if err != nil {
		return errors.Wrap(err, "")
	}
	level, err := logging.LogLevel(cfg.Log.Level)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, module := range []string{"run", "atomed", "fock"} {
		logging.SetLevel(level, module)
	}

	p, err := cfg.Params()
	if err != nil {
		return errors.Wrap(err, "")
	}
	log.Infof("%#v", p)
	m, err := atomed.NewModel(p)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := report.WriteBasis(w, m.Basis); err != nil {
		return errors.Wrap(err, "")
	}

	plain, err := m.Solve(false)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := report.WriteSummary(w, plain); err != nil {
		return errors.Wrap(err, "")
	}
	if err := report.WriteTable(w, plain.Levels, false); err != nil {
		return errors.Wrap(err, "")
	}

	soc, err := m.Solve(true)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if _, err := fmt.Fprintln(w, "With SOC"); err != nil {
		return errors.Wrap(err, "")
	}
	if err := report.WriteTable(w, soc.Levels, true); err != nil {
		return errors.Wrap(err, "")
	}

	for _, s := range []atomed.Spectrum{plain, soc} {
		if _, err := fmt.Fprintln(w); err != nil {
			return errors.Wrap(err, "")
		}
		if err := report.WriteMultiplets(w, atomed.Multiplets(s.Levels, atomed.DegeneracyTol), s.SOC); err != nil {
			return errors.Wrap(err, "")
		}
	}

	if cfg.Output.Dir != "" {
		if err := writeOutputs(cfg.Output.Dir, m, plain, soc); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if cfg.Output.DB != "" {
		if err := archive(cfg.Output.DB, m, plain, soc); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}
