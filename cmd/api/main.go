package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prompt-matrix/internal/config"
	"prompt-matrix/internal/handler"
	"prompt-matrix/internal/logging"
	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/repository"
	"prompt-matrix/internal/service"
	"prompt-matrix/internal/txt2img"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DBPath, "path to SQLite database")
	host := flag.String("host", cfg.Host, "HTTP listen address")
	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()

	logger := logging.NewLogger(cfg.AppEnv)

	// Initialize repository
	repo, err := repository.NewSQLiteRepository(*dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db", *dbPath).Msg("failed to initialize repository")
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsInstance := metrics.NewMetrics()
	guard := service.NewExpansionGuard(cfg.ExpansionWarnAt, cfg.ExpansionMax)

	// Initialize services
	jobService, err := service.NewJobService(ctx, repo, guard, metricsInstance, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load queue")
	}
	historyService, err := service.NewHistoryService(ctx, repo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load run history")
	}

	if cfg.StableDiffusionDir == "" {
		logger.Warn().Msg("SD_DIR is not set, queued jobs will fail")
	}
	generator := txt2img.NewExecGenerator(cfg.PythonPath, cfg.StableDiffusionDir, cfg.StableDiffusionOutputs)
	workerService := service.NewWorkerService(jobService.Queue(), jobService.Controller(), generator, historyService, metricsInstance, logger)

	h := handler.NewHandler(jobService, historyService, metricsInstance, cfg.PythonPath, logger)
	server := &http.Server{
		Addr:              net.JoinHostPort(*host, *port),
		Handler:           handler.NewRouter(h, cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The runner shares the queue with the API, so both live in this process
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := workerService.ProcessJobs(ctx, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("worker error")
		}
	}()

	go func() {
		logger.Info().Str("addr", server.Addr).Str("db", *dbPath).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error closing server")
	}
	<-workerDone

	if err := jobService.Flush(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to persist queue")
	}
	logger.Info().Msg("server stopped")
}
