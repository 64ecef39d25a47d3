// Command ingest loads a transaction CSV, cleans it, stores it in SQLite
// and builds the semantic index. With -watch it re-ingests whenever a CSV
// in the watch directory is created or rewritten.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/adapters/filewatcher"
	"github.com/0xcro3dile/txnsight/internal/bootstrap"
	"github.com/0xcro3dile/txnsight/internal/config"
	"github.com/0xcro3dile/txnsight/internal/domain/apperrors"
	"github.com/0xcro3dile/txnsight/internal/domain/usecases"
	"github.com/0xcro3dile/txnsight/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file (optional)")
		input      = flag.String("input", "", "Raw CSV to ingest (overrides data.raw_csv_path)")
		watch      = flag.Bool("watch", false, "Keep running and re-ingest CSV files dropped in the watch directory")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *input != "" {
		cfg.Data.RawCSVPath = *input
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialise components", zap.Error(err))
	}
	defer components.Close()

	ingest := components.Ingest(logger)

	if err := runOnce(ctx, ingest, cfg.Data.RawCSVPath, logger); err != nil && !*watch {
		logger.Error("Ingestion failed", zap.Error(err))
		components.Close()
		os.Exit(1)
	}

	if !*watch {
		return
	}

	dir := cfg.Data.WatchDir
	if dir == "" {
		dir = filepath.Dir(cfg.Data.RawCSVPath)
	}
	if err := watchDir(ctx, ingest, dir, cfg, logger); err != nil {
		logger.Error("Watch failed", zap.Error(err))
		components.Close()
		os.Exit(1)
	}
}

// runOnce ingests path and logs the outcome. An input with no usable
// rows is reported but leaves the previous table and index in place.
func runOnce(ctx context.Context, ingest *usecases.IngestUseCase, path string, logger *zap.Logger) error {
	report, err := ingest.Run(ctx, path)
	if err != nil {
		if apperrors.IsNoData(err) {
			logger.Warn("Nothing to ingest", zap.String("path", path), zap.Error(err))
		}
		return err
	}

	logger.Info("Ingestion complete",
		zap.String("run_id", report.RunID),
		zap.String("path", report.Path),
		zap.Int("input_rows", report.Clean.Input),
		zap.Int("stored", report.Stored),
		zap.Int("indexed", report.Indexed),
		zap.Int("dim", report.Dim),
		zap.String("model", report.Model),
		zap.Duration("duration", report.Duration))
	return nil
}

// watchDir re-runs ingestion for every settled CSV write in dir until ctx is done.
func watchDir(ctx context.Context, ingest *usecases.IngestUseCase, dir string, cfg *config.Config, logger *zap.Logger) error {
	watcher, err := filewatcher.NewFSNotifyWatcher(nil, logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	logger.Info("Watching for CSV files", zap.String("dir", dir), zap.Duration("debounce", cfg.Data.Debounce))

	for ev := range filewatcher.Debounce(ctx, events, cfg.Data.Debounce) {
		logger.Info("CSV changed", zap.String("path", ev.Path), zap.String("op", ev.Operation.String()))
		if err := runOnce(ctx, ingest, ev.Path, logger); err != nil {
			logger.Error("Ingestion failed", zap.String("path", ev.Path), zap.Error(err))
		}
	}
	return nil
}
