// Package store archives diagonalization runs in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/atomed"
	"github.com/fumin/atomed/mat"
)

const (
	tableRun    = "run"
	tableLevel  = "level"
	tableShape  = "shape"
	tableMatrix = "m"

	prepareTimeout = 3 * time.Second
)

// DB is a sqlite archive of runs.
type DB struct {
	Path string

	db *sql.DB
}

// Open opens the archive at dbPath, creating its tables if they do not exist.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &DB{Path: dbPath, db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), prepareTimeout)
	defer cancel()
	sqlStrs := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, shell TEXT, orbitals INTEGER, occupancy INTEGER, slater TEXT, soc REAL, created INTEGER) STRICT`, tableRun),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run INTEGER, withsoc INTEGER, idx INTEGER, energy REAL, s2 REAL, l2 REAL, j2 REAL, PRIMARY KEY (run, withsoc, idx)) STRICT`, tableLevel),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run INTEGER, name TEXT, rows INTEGER, cols INTEGER, PRIMARY KEY (run, name)) STRICT`, tableShape),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run INTEGER, name TEXT, i INTEGER, j INTEGER, v REAL, PRIMARY KEY (run, name, i, j)) STRICT`, tableMatrix),
	}
	for _, sqlStr := range sqlStrs {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}

// SaveRun stores the parameters and the levels of every spectrum, and returns the id of the run.
func (d *DB) SaveRun(ctx context.Context, p atomed.Params, spectra ...atomed.Spectrum) (int64, error) {
	slater, err := json.Marshal(p.Slater)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	defer tx.Rollback()

	sqlStr := fmt.Sprintf(`INSERT INTO %s (shell, orbitals, occupancy, slater, soc, created) VALUES (?, ?, ?, ?, ?, ?)`, tableRun)
	res, err := tx.ExecContext(ctx, sqlStr, p.Shell, p.Orbitals, p.Occupancy, string(slater), p.SOC, time.Now().Unix())
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return -1, errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`INSERT OR REPLACE INTO %s (run, withsoc, idx, energy, s2, l2, j2) VALUES (?, ?, ?, ?, ?, ?, ?)`, tableLevel)
	for _, s := range spectra {
		for _, lv := range s.Levels {
			args := []any{id, s.SOC, lv.Index, lv.Energy, lv.S2, lv.L2, lv.J2}
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return -1, errors.Wrap(err, fmt.Sprintf("%#v", args))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return id, nil
}

// LoadParams returns the parameters of a run.
func (d *DB) LoadParams(ctx context.Context, run int64) (atomed.Params, error) {
	sqlStr := fmt.Sprintf(`SELECT shell, orbitals, occupancy, slater, soc FROM %s WHERE id=?`, tableRun)
	var p atomed.Params
	var slater string
	err := d.db.QueryRowContext(ctx, sqlStr, run).Scan(&p.Shell, &p.Orbitals, &p.Occupancy, &slater, &p.SOC)
	switch {
	case err == sql.ErrNoRows:
		return atomed.Params{}, errors.Errorf("no run %d", run)
	case err != nil:
		return atomed.Params{}, errors.Wrap(err, "")
	}
	if err := json.Unmarshal([]byte(slater), &p.Slater); err != nil {
		return atomed.Params{}, errors.Wrap(err, slater)
	}
	return p, nil
}

// LoadLevels returns the levels of a run in ascending index.
func (d *DB) LoadLevels(ctx context.Context, run int64, withSOC bool) ([]atomed.Level, error) {
	sqlStr := fmt.Sprintf(`SELECT idx, energy, s2, l2, j2 FROM %s WHERE run=? AND withsoc=? ORDER BY idx`, tableLevel)
	rows, err := d.db.QueryContext(ctx, sqlStr, run, withSOC)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	levels := make([]atomed.Level, 0)
	for rows.Next() {
		var lv atomed.Level
		if err := rows.Scan(&lv.Index, &lv.Energy, &lv.S2, &lv.L2, &lv.J2); err != nil {
			return nil, errors.Wrap(err, "")
		}
		levels = append(levels, lv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return levels, nil
}

// SaveMatrix stores m under name, replacing any matrix of the same name in the run.
func (d *DB) SaveMatrix(ctx context.Context, run int64, name string, m *mat.COO) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()

	sqlStr := fmt.Sprintf(`DELETE FROM %s WHERE run=? AND name=?`, tableMatrix)
	if _, err := tx.ExecContext(ctx, sqlStr, run, name); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`INSERT OR REPLACE INTO %s (run, name, rows, cols) VALUES (?, ?, ?, ?)`, tableShape)
	if _, err := tx.ExecContext(ctx, sqlStr, run, name, m.Rows(), m.Cols()); err != nil {
		return errors.Wrap(err, "")
	}

	c := m.Copy()
	c.Compact(0)
	sqlStr = fmt.Sprintf(`INSERT INTO %s (run, name, i, j, v) VALUES (?, ?, ?, ?, ?)`, tableMatrix)
	for ij, v := range c.All() {
		if _, err := tx.ExecContext(ctx, sqlStr, run, name, ij[0], ij[1], v); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v %f", ij, v))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (d *DB) LoadMatrix(ctx context.Context, run int64, name string) (*mat.COO, error) {
	sqlStr := fmt.Sprintf(`SELECT rows, cols FROM %s WHERE run=? AND name=?`, tableShape)
	var r, c int
	err := d.db.QueryRowContext(ctx, sqlStr, run, name).Scan(&r, &c)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Errorf("no matrix %s in run %d", name, run)
	case err != nil:
		return nil, errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`SELECT i, j, v FROM %s WHERE run=? AND name=? ORDER BY i, j`, tableMatrix)
	rows, err := d.db.QueryContext(ctx, sqlStr, run, name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	m := mat.NewCOO(r, c)
	for rows.Next() {
		var i, j int
		var v float64
		if err := rows.Scan(&i, &j, &v); err != nil {
			return nil, errors.Wrap(err, "")
		}
		m.AddAt(i, j, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	m.Compact(0)
	return m, nil
}
