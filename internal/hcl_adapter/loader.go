package hcl_adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/neodes/internal/config"
	"github.com/vk/neodes/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// configFile lists every block an application configuration file may hold.
// All settings are optional; omitted ones keep their current value.
type configFile struct {
	Schema      *schemaBlock      `hcl:"schema,block"`
	Limits      *limitsBlock      `hcl:"limits,block"`
	Parse       *parseBlock       `hcl:"parse,block"`
	Log         *logBlock         `hcl:"log,block"`
	Diagnostics *diagnosticsBlock `hcl:"diagnostics,block"`
	Remain      hcl.Body          `hcl:",remain"`
}

type schemaBlock struct {
	Path       *string  `hcl:"path,optional"`
	Dir        *string  `hcl:"dir,optional"`
	Format     *string  `hcl:"format,optional"`
	Extensions []string `hcl:"extensions,optional"`
	AutoDetect *bool    `hcl:"auto_detect,optional"`
}

type limitsBlock struct {
	MaxDepth      *int `hcl:"max_depth,optional"`
	MaxBlocks     *int `hcl:"max_blocks,optional"`
	MaxLineLength *int `hcl:"max_line_length,optional"`
}

type parseBlock struct {
	Charset  *string `hcl:"charset,optional"`
	Detach   *bool   `hcl:"detach_completed,optional"`
	Workers  *int    `hcl:"workers,optional"`
	Envelope *bool   `hcl:"envelope,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type diagnosticsBlock struct {
	Port *int `hcl:"port,optional"`
}

// Load reads each existing file in order on top of config.Default(). Missing
// files are skipped so a default configuration path may be passed blindly.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL config loader started.", "path_count", len(paths))

	model := config.Default()
	parser := hclparse.NewParser()

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				logger.Debug("Config file not found, skipping.", "path", path)
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}

		var root configFile
		if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
		}
		root.apply(model)
		logger.Debug("Config file applied.", "path", path)
	}

	return model, nil
}

func (f *configFile) apply(m *config.Model) {
	if s := f.Schema; s != nil {
		setIf(&m.Schema.Path, s.Path)
		setIf(&m.Schema.Dir, s.Dir)
		setIf(&m.Schema.Format, s.Format)
		setIf(&m.Schema.AutoDetect, s.AutoDetect)
		if s.Extensions != nil {
			m.Schema.Extensions = s.Extensions
		}
	}
	if l := f.Limits; l != nil {
		setIf(&m.Limits.MaxDepth, l.MaxDepth)
		setIf(&m.Limits.MaxBlocks, l.MaxBlocks)
		setIf(&m.Limits.MaxLineLength, l.MaxLineLength)
	}
	if p := f.Parse; p != nil {
		setIf(&m.Parse.Charset, p.Charset)
		setIf(&m.Parse.Detach, p.Detach)
		setIf(&m.Parse.Workers, p.Workers)
		setIf(&m.Parse.Envelope, p.Envelope)
	}
	if lg := f.Log; lg != nil {
		setIf(&m.Log.Level, lg.Level)
		setIf(&m.Log.Format, lg.Format)
	}
	if d := f.Diagnostics; d != nil {
		setIf(&m.Diagnostics.Port, d.Port)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
