package config

import (
	"errors"
	"log/slog"
)

// DefaultOutputDir is used when no -out flag is given
const DefaultOutputDir = "converted"

// Config holds application configuration
type Config struct {
	OutputDir string
	Inputs    []string // Paths given on the command line, in order

	Verbose    bool
	Diagnose   bool // Log runtime diagnostics at start and end
	NoProgress bool // Plain log lines instead of a progress bar
}

// Validate checks the configuration before a job is started
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if len(c.Inputs) == 0 {
		return errors.New("no input files, archives or directories given")
	}
	return nil
}

// LogLevel maps the verbose flag to a slog level
func (c *Config) LogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
