package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vk/neodes/internal/affiliation"
	"github.com/vk/neodes/internal/ctxlog"
	"github.com/vk/neodes/internal/model"
	"github.com/vk/neodes/internal/reconciler"
	"github.com/vk/neodes/internal/registry"
	"github.com/vk/neodes/internal/schema"
	"github.com/vk/neodes/internal/source"
)

// fileResult is the outcome of parsing one file.
type fileResult struct {
	Path         string
	ParseID      string
	Version      string
	Declarations int
	Fields       int
	Skipped      int
	Affiliations int
	Duration     time.Duration
	Err          error
}

func (r *fileResult) summary() string {
	if r.Err != nil {
		return fmt.Sprintf("FAIL %s parse_id=%s: %v", r.Path, r.ParseID, r.Err)
	}
	return fmt.Sprintf("OK   %s parse_id=%s version=%s declarations=%d fields=%d skipped=%d affiliations=%d",
		r.Path, r.ParseID, r.Version, r.Declarations, r.Fields, r.Skipped, r.Affiliations)
}

// parseFile reads one declaration file. Failures are reported in the result.
func (a *App) parseFile(ctx context.Context, path string) *fileResult {
	res := &fileResult{Path: path, ParseID: uuid.NewString()}
	ctx = ctxlog.With(ctx, "parse_id", res.ParseID, "file", path)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing file.")

	start := time.Now()
	doc, err := a.parse(ctx, path, res)
	res.Duration = time.Since(start)
	res.Err = err
	if doc != nil {
		res.Version = doc.Version
		res.Fields = doc.TotalFields
		res.Skipped = doc.SkippedLines
	}
	a.metrics.ObserveFile(res.Duration, res.Fields, res.Skipped, err)

	if err != nil {
		logger.Error("File rejected.", "error", err)
	} else {
		logger.Info("File parsed successfully.", "declarations", res.Declarations, "fields", res.Fields, "duration", res.Duration)
	}
	return res
}

func (a *App) parse(ctx context.Context, path string, res *fileResult) (*model.Document, error) {
	opts := a.config.Model

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, source.PeekSize)

	m, err := a.schemaFor(ctx, br)
	if err != nil {
		return nil, err
	}

	r := reconciler.New(m,
		reconciler.WithLogger(ctxlog.FromContext(ctx)),
		reconciler.WithMaxDepth(opts.Limits.MaxDepth),
		reconciler.WithMaxBlocks(opts.Limits.MaxBlocks),
		reconciler.WithDetach(opts.Parse.Detach),
		reconciler.WithListener(func(*model.Block) { a.metrics.BlockClosed() }),
	)

	src, err := source.NewReader(br, opts.Parse.Charset, opts.Limits.MaxLineLength)
	if err != nil {
		return nil, err
	}

	var doc *model.Document
	if opts.Parse.Envelope {
		var env *model.Envelope
		env, err = r.ParseEnvelope(src.Lines())
		if env != nil {
			doc = env.Document
			res.Declarations = len(env.Declarations)
		}
	} else {
		doc, err = r.ParseDocument(src.Lines())
		if doc != nil {
			res.Declarations = countDeclarations(doc)
		}
	}
	if srcErr := src.Err(); srcErr != nil {
		return nil, srcErr
	}
	if err != nil {
		return nil, err
	}

	if opts.Parse.Detach {
		ctxlog.FromContext(ctx).Debug("Completed blocks were detached, affiliations not reconciled.")
		return doc, nil
	}
	affs, err := affiliation.Reconcile(doc)
	if err != nil {
		return doc, err
	}
	res.Affiliations = len(affs)
	return doc, nil
}

// schemaFor returns the configured schema, or the one named in the file
// header when auto-detection is on.
func (a *App) schemaFor(ctx context.Context, br *bufio.Reader) (*schema.Model, error) {
	cfg := a.config.Model.Schema
	path := cfg.Path
	if path == "" {
		lines, err := source.Peek(br, a.config.Model.Parse.Charset)
		if err != nil {
			return nil, err
		}
		version, err := registry.DetectVersion(slices.Values(lines))
		if err != nil {
			return nil, err
		}
		if path, err = registry.ResolvePath(cfg.Dir, version, cfg.Format); err != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Debug("Schema version detected.", "version", version, "schema", path)
	}

	m, err := a.registry.Load(ctx, path, cfg.Extensions...)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && cfg.Path == "" {
			return nil, fmt.Errorf("no schema for this version in %s: %w", cfg.Dir, err)
		}
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return m, nil
}

func countDeclarations(doc *model.Document) int {
	n := 0
	for _, root := range doc.Roots {
		if strings.HasPrefix(root.Code, "S20") {
			n++
		}
	}
	return n
}
