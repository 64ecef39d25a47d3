// Command server serves semantic transaction search and anomaly detection
// over HTTP. Send SIGHUP to reload the index after a new ingest.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/bootstrap"
	"github.com/0xcro3dile/txnsight/internal/config"
	"github.com/0xcro3dile/txnsight/internal/domain/usecases"
	"github.com/0xcro3dile/txnsight/internal/infrastructure/ginapi"
	httpserver "github.com/0xcro3dile/txnsight/internal/infrastructure/http"
	"github.com/0xcro3dile/txnsight/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file (optional)")
		frontend   = flag.String("frontend", "", "HTTP front end: http or gin (overrides server.frontend)")
		addr       = flag.String("addr", "", "Listen address (overrides server.addr)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *frontend != "" {
		cfg.Server.Frontend = *frontend
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
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

	retriever := components.Retriever(logger)
	if err := retriever.Load(ctx); err != nil {
		// Serve anyway: /health reports degraded and the API answers 503
		logger.Warn("Retrieval components unavailable, run ingest and send SIGHUP", zap.Error(err))
	}
	go reloadOnHangup(ctx, retriever, logger)

	query := usecases.NewQueryUseCase(retriever, cfg.Retrieval.TopK, logger)
	anomaly := components.Anomaly(cfg.Anomaly, logger)

	logger.Info("Configuration loaded",
		zap.String("frontend", cfg.Server.Frontend),
		zap.String("database", cfg.Data.DatabasePath),
		zap.String("index", cfg.Data.IndexPath),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", components.Embedder.ModelName()))

	switch cfg.Server.Frontend {
	case config.FrontendGin:
		gin.SetMode(gin.ReleaseMode)
		if cfg.Log.Development {
			gin.SetMode(gin.DebugMode)
		}
		err = ginapi.NewServer(query, anomaly, ginapi.Options{
			Addr:            cfg.Server.Addr,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, logger).Start(ctx)
	default:
		err = httpserver.NewServer(query, anomaly, httpserver.Options{
			Addr:            cfg.Server.Addr,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, logger).Start(ctx)
	}
	if err != nil {
		logger.Error("Server failed", zap.Error(err))
		components.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func reloadOnHangup(ctx context.Context, retriever *usecases.Retriever, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := retriever.Reload(ctx); err != nil {
				logger.Error("Reload failed", zap.Error(err))
				continue
			}
			logger.Info("Retrieval components reloaded")
		}
	}
}
