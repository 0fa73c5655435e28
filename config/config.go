// Package config reads the parameters of a run from YAML.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fumin/atomed"
	"github.com/fumin/atomed/angmom"
)

type Config struct {
	Shell     string    `yaml:"shell"`
	Occupancy int       `yaml:"occupancy"`
	Slater    []float64 `yaml:"slater"`
	SOC       float64   `yaml:"soc"`

	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

type OutputConfig struct {
	// Dir receives the eigenvector CSVs, the Hamiltonians and the level plot.
	Dir string `yaml:"dir"`
	// DB is the sqlite archive.
	DB string `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"` // DEBUG, INFO, WARNING, ERROR
}

func Default() *Config {
	p := atomed.DefaultParams()
	return &Config{
		Shell:     p.Shell,
		Occupancy: p.Occupancy,
		Slater:    p.Slater,
		SOC:       p.SOC,
		Log:       LogConfig{Level: "INFO"},
	}
}

// Load reads path on top of the defaults, so absent keys keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Params returns the validated physical parameters, with the number of orbitals derived from the shell.
func (c *Config) Params() (atomed.Params, error) {
	l, err := angmom.ShellL(c.Shell)
	if err != nil {
		return atomed.Params{}, errors.Wrap(err, "")
	}
	p := atomed.Params{
		Shell:     c.Shell,
		Orbitals:  angmom.NumOrbitals(l),
		Occupancy: c.Occupancy,
		Slater:    append([]float64(nil), c.Slater...),
		SOC:       c.SOC,
	}
	if err := p.Validate(); err != nil {
		return atomed.Params{}, errors.Wrap(err, "")
	}
	return p, nil
}
