package app

import (
	"errors"
	"fmt"

	"github.com/vk/neodes/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Inputs []string // declaration files or directories
	Model  *config.Model
}

// InputExtensions are the file extensions picked up inside input directories.
var InputExtensions = []string{".dsn", ".txt"}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Model == nil {
		cfg.Model = config.Default()
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// requireInputs is checked by Run only, so a Config without inputs can still
// describe its schema.
func (c *Config) requireInputs() error {
	if len(c.Inputs) == 0 {
		return errors.New("at least one input file or directory is required")
	}
	return nil
}
