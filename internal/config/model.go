package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultMaxDepth      = 32
	DefaultMaxBlocks     = 100000
	DefaultMaxLineLength = 4096
	DefaultWorkers       = 4
	DefaultCharset       = "iso-8859-1"
)

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Schema      Schema
	Limits      Limits
	Parse       Parse
	Log         Log
	Diagnostics Diagnostics
}

// Schema locates the schema resource. Path wins over Dir; with Dir set and
// AutoDetect on, the version named in each file header picks the resource.
type Schema struct {
	Path       string
	Dir        string
	Format     string // resource extension used with Dir, e.g. ".yaml"
	Extensions []string
	AutoDetect bool
}

// Limits bound the resources a single parse may use.
type Limits struct {
	MaxDepth      int
	MaxBlocks     int
	MaxLineLength int
}

// Parse holds the per-file reading options.
type Parse struct {
	Charset string
	Detach  bool
	Workers int
	// Envelope requires a header, a footer and matching footer counts.
	Envelope bool
}

type Log struct {
	Level  string
	Format string
}

type Diagnostics struct {
	Port int
}

// Default returns the configuration used when nothing overrides it.
func Default() *Model {
	return &Model{
		Schema: Schema{
			Format:     ".yaml",
			Extensions: []string{"common", "sage", "fiducial"},
		},
		Limits: Limits{
			MaxDepth:      DefaultMaxDepth,
			MaxBlocks:     DefaultMaxBlocks,
			MaxLineLength: DefaultMaxLineLength,
		},
		Parse: Parse{
			Charset:  DefaultCharset,
			Workers:  DefaultWorkers,
			Envelope: true,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Validate reports every invalid setting at once.
func (m *Model) Validate() error {
	var errs []error
	if m.Schema.Path == "" && m.Schema.Dir == "" {
		errs = append(errs, errors.New("schema: either a path or a directory is required"))
	}
	if m.Schema.Path == "" && m.Schema.Dir != "" && !m.Schema.AutoDetect {
		errs = append(errs, errors.New("schema: a directory requires auto_detect"))
	}
	if m.Limits.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("limits: max_depth must be positive, got %d", m.Limits.MaxDepth))
	}
	if m.Limits.MaxBlocks < 1 {
		errs = append(errs, fmt.Errorf("limits: max_blocks must be positive, got %d", m.Limits.MaxBlocks))
	}
	if m.Limits.MaxLineLength < 1 {
		errs = append(errs, fmt.Errorf("limits: max_line_length must be positive, got %d", m.Limits.MaxLineLength))
	}
	if m.Parse.Workers < 1 {
		errs = append(errs, fmt.Errorf("parse: workers must be positive, got %d", m.Parse.Workers))
	}
	switch strings.ToLower(m.Parse.Charset) {
	case "iso-8859-1", "latin1", "utf-8", "utf8":
	default:
		errs = append(errs, fmt.Errorf("parse: unsupported charset %q", m.Parse.Charset))
	}
	switch m.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log: invalid level %q", m.Log.Level))
	}
	switch m.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: invalid format %q", m.Log.Format))
	}
	if m.Diagnostics.Port < 0 || m.Diagnostics.Port > 65535 {
		errs = append(errs, fmt.Errorf("diagnostics: invalid port %d", m.Diagnostics.Port))
	}
	return errors.Join(errs...)
}
