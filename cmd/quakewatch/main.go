// Command quakewatch is a terminal dashboard of recent earthquakes from the
// USGS feed. It is configured through environment variables; see
// internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/quakewatch/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/quakewatch/internal/adapter/kafka"
	"github.com/couchcryptid/quakewatch/internal/adapter/usgs"
	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/config"
	"github.com/couchcryptid/quakewatch/internal/observability"
	"github.com/couchcryptid/quakewatch/internal/pipeline"
	"github.com/couchcryptid/quakewatch/internal/store"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
	"github.com/couchcryptid/quakewatch/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "quakewatch:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the UI, so records go to LOG_FILE and warnings
	// also show up in the status line.
	fileHandler, closeLog, err := observability.OpenLogFile(cfg)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	tuiHandler := ui.NewTUILogHandler(slog.LevelWarn)
	logger := slog.New(observability.FanoutHandler{fileHandler, tuiHandler})
	metrics := observability.NewMetrics()

	catalog, err := tilelayer.Load(cfg.TileLayersFile)
	if err != nil {
		return err
	}
	if cfg.TileLayer != "" {
		if _, ok := catalog.Lookup(cfg.TileLayer); !ok {
			return fmt.Errorf("TILE_LAYER %q is not in the catalog %v", cfg.TileLayer, catalog.Names())
		}
	}
	overlay, err := boundary.Load(cfg.BoundariesFile)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, cfg.USGSQueryLimit, cfg.USGSMinRequestInterval,
		metrics, logger.With("component", "usgs"))
	source := usgs.NewCachedSource(client, cfg.CacheSize, cfg.CacheTTL, clock, metrics)
	st := store.New(clock)

	var (
		loader pipeline.BatchLoader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger.With("component", "kafka"))
		loader = writer
		logger.Info("kafka mirror enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka mirror disabled")
	}

	p := pipeline.New(source, st, loader, logger.With("component", "pipeline"), metrics, pipeline.Options{
		Interval: cfg.RefreshInterval,
		Clock:    clock,
		Initial:  cfg.Selector,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ops opsServer
	if cfg.HTTPAddr != "" {
		ops = httpadapter.NewServer(cfg.HTTPAddr, p, st, logger.With("component", "http"))
	}

	snapshots := p.Subscribe()
	runUI := func(ctx context.Context) error {
		model := ui.NewModel(ui.Options{
			Context:   ctx,
			Refresher: p,
			Snapshots: snapshots,
			Catalog:   catalog,
			Overlay:   overlay,
			Config: ui.ViewConfig{
				Theme:          cfg.Theme,
				TileLayer:      cfg.TileLayer,
				ShowBoundaries: cfg.ShowBoundaries,
				Selector:       cfg.Selector,
			},
			Clock: clock,
		})
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		tuiHandler.SetProgram(program)
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}

	err = supervise(ctx, cfg.ShutdownTimeout, p.Run, ops, runUI)
	logger.Info("shutting down")

	if writer != nil {
		if cerr := writer.Close(); cerr != nil {
			logger.Error("kafka writer close error", "error", cerr)
		}
	}

	logger.Info("shutdown complete")
	return err
}

// opsServer is the optional operational HTTP endpoint.
type opsServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// supervise runs the pipeline, the ops server (when not nil) and the UI
// until the UI exits or any of them fails. All three share one context, so
// a failure anywhere stops the rest and is returned.
func supervise(ctx context.Context, shutdownTimeout time.Duration, pipe func(context.Context) error, srv opsServer, runUI func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pipe(gctx)
	})

	if srv != nil {
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// Quitting the UI stops everything else.
	g.Go(func() error {
		defer cancel()
		return runUI(gctx)
	})

	return g.Wait()
}
