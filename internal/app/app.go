// Package app initializes and orchestrates the main components of the
// application. It wires together the configuration, server, worker pool, and
// supporting services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/db"
	"github.com/sevigo/pr-warden/internal/fetcher"
	"github.com/sevigo/pr-warden/internal/jobs"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/notify"
	"github.com/sevigo/pr-warden/internal/pipeline"
	"github.com/sevigo/pr-warden/internal/server"
	"github.com/sevigo/pr-warden/internal/storage"
	"github.com/sevigo/pr-warden/internal/store"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher core.JobDispatcher
	results    store.ResultStore
	dbConn     *db.DB // nil when archiving is disabled
	closeRedis func() error
}

// newOllamaHTTPClient creates an HTTP client with longer timeouts for Ollama
// requests. Ollama can take a while to process requests, so we need more
// generous timeouts.
func newOllamaHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing PR Warden application",
		"ollama_host", cfg.OllamaHost,
		"model", cfg.ModelName,
		"max_workers", cfg.MaxWorkers,
		"result_ttl", cfg.ResultTTL,
	)

	redisClient := store.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	results := store.NewRedisStore(redisClient, cfg.ResultTTL)

	logger.Info("connecting to model backend", "model", cfg.ModelName, "host", cfg.OllamaHost)
	model, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaHost),
		ollama.WithModel(cfg.ModelName),
		ollama.WithHTTPClient(newOllamaHTTPClient(cfg.AnalyzeTimeout)),
		ollama.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}
	analyzer := llm.NewAnalyzer(model, promptMgr, logger)
	diffFetcher := fetcher.New(cfg.GitHubToken, logger)

	runner := pipeline.NewRunner(diffFetcher, analyzer, cfg.FetchTimeout, cfg.AnalyzeTimeout, logger)
	notifier := notify.NewWebhookNotifier(cfg.NotifyTimeout, logger)

	var dbConn *db.DB
	var archive storage.Archive
	if cfg.ArchiveEnabled {
		dbConn, err = db.NewDatabase(cfg.Archive)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to archive database: %w", err)
		}
		archive = storage.NewArchive(dbConn.DB)
	}

	analyzeJob := jobs.NewAnalyzeJob(runner, results, notifier, archive, logger)
	dispatcher := jobs.NewDispatcher(analyzeJob, cfg.MaxWorkers, cfg.QueueSize, logger)
	httpServer := server.NewServer(ctx, cfg, dispatcher, results, logger)

	logger.Info("PR Warden application initialized successfully")
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     httpServer,
		logger:     logger,
		dispatcher: dispatcher,
		results:    results,
		dbConn:     dbConn,
		closeRedis: redisClient.Close,
	}, nil
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting PR Warden",
		"server_port", a.cfg.ServerPort,
		"max_workers", a.cfg.MaxWorkers,
	)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down PR Warden services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight jobs to finish.
	a.dispatcher.Stop()

	if a.dbConn != nil {
		a.logger.Info("closing archive database connection")
		if err := a.dbConn.Close(); err != nil {
			a.logger.Error("error closing archive database", "error", err)
		}
	}

	if err := a.closeRedis(); err != nil {
		a.logger.Error("error closing redis connection", "error", err)
	}

	if serverErr != nil {
		a.logger.Error("PR Warden stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("PR Warden stopped successfully")
	return nil
}
