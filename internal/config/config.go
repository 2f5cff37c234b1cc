// Package config loads and saves tracking job descriptions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/askival/ringtrack/internal/beam"
)

const (
	DefaultTurns  = 512
	DefaultFormat = "flat"
	DefaultOrbit  = "4d"
)

type Config struct {
	Lattice    string          `yaml:"lattice"`
	Format     string          `yaml:"format"` // flat or tracy
	Turns      int             `yaml:"turns"`
	Trajectory bool            `yaml:"trajectory"`
	Orbit      string          `yaml:"orbit"` // 4d or 6d
	DataDir    string          `yaml:"data_dir"`
	InitState  InitStateConfig `yaml:"init_state"`
}

type InitStateConfig struct {
	RX float64 `yaml:"rx"`
	PX float64 `yaml:"px"`
	RY float64 `yaml:"ry"`
	PY float64 `yaml:"py"`
	DE float64 `yaml:"de"`
	DL float64 `yaml:"dl"`
}

func DefaultConfig() *Config {
	return &Config{
		Format:  DefaultFormat,
		Turns:   DefaultTurns,
		Orbit:   DefaultOrbit,
		DataDir: ".ringtrack",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Turns <= 0 {
		return fmt.Errorf("config: turns must be positive, got %d", c.Turns)
	}
	if c.Format != "flat" && c.Format != "tracy" {
		return fmt.Errorf("config: unknown lattice format %q", c.Format)
	}
	if c.Orbit != "4d" && c.Orbit != "6d" {
		return fmt.Errorf("config: orbit must be 4d or 6d, got %q", c.Orbit)
	}
	return nil
}

// InitPos returns the configured initial phase-space point.
func (c *Config) InitPos() beam.Pos {
	s := c.InitState
	return beam.NewPos(s.RX, s.PX, s.RY, s.PY, s.DE, s.DL)
}
