package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vk/neodes/internal/ctxlog"
	"github.com/vk/neodes/internal/metrics"
	"github.com/vk/neodes/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	promReg    *prometheus.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Summaries are written
// to outW and logs to logW. Each App owns its logger, schema registry and
// metrics registry.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.Model.Log.Level, cfg.Model.Log.Format, logW)
	logger.Debug("Logger configured successfully.")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: registry.New(),
		promReg:  promReg,
		metrics:  metrics.New(promReg),
	}
}

// Registry returns the application's schema registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// DescribeSchema loads the configured schema resource and prints its
// version, its blocks and its natures.
func (a *App) DescribeSchema(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cfg := a.config.Model.Schema
	if cfg.Path == "" {
		return errors.New("describing a schema requires a schema path")
	}

	m, err := a.registry.Load(ctx, cfg.Path, cfg.Extensions...)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	vendor := 0
	for code := range m.Blocks {
		if !m.IsOfficialBlock(code) {
			vendor++
		}
	}
	fmt.Fprintf(a.outW, "version=%s blocks=%d vendor_blocks=%d natures=%d\n", m.Version, len(m.Blocks), vendor, len(m.Natures))

	codes := make([]string, 0, len(m.Natures))
	for code := range m.Natures {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(a.outW, "nature %s: %s\n", code, m.Natures[code].Label)
	}
	return nil
}
