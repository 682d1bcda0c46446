package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/neodes/internal/ctxlog"
	"github.com/vk/neodes/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

// Run parses every input file and prints one summary line per file. Files
// are parsed concurrently by a bounded pool of workers; one failing file does
// not stop the others. The returned error counts the failed files.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.config.requireInputs(); err != nil {
		return err
	}

	a.startDiagnosticsServer(ctx)
	defer a.closeDiagnosticsServer(ctx)

	files, err := a.collectFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.logger.Warn("No declaration files found, nothing to parse.", "inputs", a.config.Inputs)
		return nil
	}

	workers := a.config.Model.Parse.Workers
	a.logger.Info("🚀 Parsing declaration files...", "files", len(files), "workers", workers)
	start := time.Now()

	results := make([]*fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.parseFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("parse run interrupted: %w", err)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
		fmt.Fprintln(a.outW, res.summary())
	}
	a.logger.Info("🏁 Parsing finished.", "files", len(files), "failed", failed, "duration", time.Since(start))

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// collectFiles expands the input directories into declaration files.
func (a *App) collectFiles() ([]string, error) {
	var files []string
	for _, input := range a.config.Inputs {
		found, err := fsutil.FindFilesByExtension(input, InputExtensions...)
		if err != nil {
			return nil, fmt.Errorf("failed to find declaration files in %s: %w", input, err)
		}
		files = append(files, found...)
	}
	return files, nil
}
