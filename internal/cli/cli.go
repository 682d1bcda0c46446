// Package cli maps command-line arguments onto the application.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/neodes/internal/app"
	"github.com/vk/neodes/internal/config"
	"github.com/vk/neodes/internal/ctxlog"
)

// DefaultConfigPath is read when present and --config is not given.
const DefaultConfigPath = "neodes.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// flags holds the raw values of every option; only options set on the
// command line override the configuration file.
type flags struct {
	loader config.Loader

	configPath     string
	schemaPath     string
	schemaDir      string
	extensions     []string
	maxDepth       int
	maxBlocks      int
	maxLineLength  int
	charset        string
	workers        int
	detach         bool
	envelope       bool
	logLevel       string
	logFormat      string
	diagnosticPort int
}

// Execute runs the command line args. Usage problems come back as an
// ExitError with code 2, failed runs with code 1.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, loader config.Loader) error {
	root := NewRootCommand(outW, errW, loader)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return usageError(err)
	}
	return nil
}

// NewRootCommand builds the neodes command tree.
func NewRootCommand(outW, errW io.Writer, loader config.Loader) *cobra.Command {
	root, _ := newRootCommand(outW, errW, loader)
	return root
}

func newRootCommand(outW, errW io.Writer, loader config.Loader) (*cobra.Command, *flags) {
	f := &flags{loader: loader}

	root := &cobra.Command{
		Use:   "neodes",
		Short: "Hierarchical reader for flat payroll declaration files",
		Long: `neodes rebuilds the block tree of NEODES/DSN declaration files from their
flat "code,'value'" lines, validates it against a versioned schema and checks
the envelope counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", DefaultConfigPath, "Configuration file (HCL); skipped when missing")
	pf.StringVar(&f.schemaPath, "schema", "", "Schema resource (.yaml, .yml or .hcl)")
	pf.StringVar(&f.schemaDir, "schema-dir", "", "Directory of norm-<version> schemas, picked from each file header")
	pf.StringSliceVar(&f.extensions, "extensions", nil, "Vendor extension sets to merge (common, sage, fiducial)")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")

	parse := &cobra.Command{
		Use:   "parse [files or directories...]",
		Short: "Parse declaration files and print one summary line per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd, args)
			if err != nil {
				return err
			}
			if err := app.NewApp(outW, errW, cfg).Run(cmd.Context()); err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return nil
		},
	}
	pfl := parse.Flags()
	pfl.IntVar(&f.maxDepth, "max-depth", config.DefaultMaxDepth, "Maximum number of nested open blocks")
	pfl.IntVar(&f.maxBlocks, "max-blocks", config.DefaultMaxBlocks, "Maximum number of blocks per file")
	pfl.IntVar(&f.maxLineLength, "max-line-length", config.DefaultMaxLineLength, "Maximum line length in characters")
	pfl.StringVar(&f.charset, "charset", config.DefaultCharset, "Input character set (iso-8859-1, utf-8)")
	pfl.IntVar(&f.workers, "workers", config.DefaultWorkers, "Number of files parsed concurrently")
	pfl.BoolVar(&f.detach, "detach", false, "Drop completed subtrees while reading")
	pfl.BoolVar(&f.envelope, "envelope", true, "Report the header / declarations / footer split")
	pfl.IntVar(&f.diagnosticPort, "diagnostics-port", 0, "Port for the /health and /metrics server. 0 is disabled.")

	describe := &cobra.Command{
		Use:   "schema",
		Short: "Print the version, blocks and natures of a schema resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd, nil)
			if err != nil {
				return err
			}
			if err := app.NewApp(outW, errW, cfg).DescribeSchema(cmd.Context()); err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return nil
		},
	}

	root.AddCommand(parse, describe)
	return root, f
}

// config loads the configuration file and applies the flags set on the
// command line on top of it.
func (f *flags) config(cmd *cobra.Command, inputs []string) (*app.Config, error) {
	ctx := cmd.Context()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("CLI parser started.")

	model, err := f.loader.Load(ctx, f.configPath)
	if err != nil {
		return nil, usageError(fmt.Errorf("failed to load configuration: %w", err))
	}

	changed := cmd.Flags().Changed
	if changed("schema") {
		model.Schema.Path = f.schemaPath
	}
	if changed("schema-dir") {
		model.Schema.Dir = f.schemaDir
		model.Schema.AutoDetect = true
	}
	if changed("extensions") {
		model.Schema.Extensions = f.extensions
	}
	if changed("log-level") {
		model.Log.Level = strings.ToLower(f.logLevel)
	}
	if changed("log-format") {
		model.Log.Format = strings.ToLower(f.logFormat)
	}
	if changed("max-depth") {
		model.Limits.MaxDepth = f.maxDepth
	}
	if changed("max-blocks") {
		model.Limits.MaxBlocks = f.maxBlocks
	}
	if changed("max-line-length") {
		model.Limits.MaxLineLength = f.maxLineLength
	}
	if changed("charset") {
		model.Parse.Charset = f.charset
	}
	if changed("workers") {
		model.Parse.Workers = f.workers
	}
	if changed("detach") {
		model.Parse.Detach = f.detach
	}
	if changed("envelope") {
		model.Parse.Envelope = f.envelope
	}
	if changed("diagnostics-port") {
		model.Diagnostics.Port = f.diagnosticPort
	}

	cfg, err := app.NewConfig(app.Config{Inputs: inputs, Model: model})
	if err != nil {
		return nil, usageError(err)
	}
	logger.Debug("CLI parser finished successfully.", "inputs", len(inputs))
	return cfg, nil
}
