package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kirillkom/exam-attendance/internal/bootstrap"
	"github.com/kirillkom/exam-attendance/internal/config"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.ReportOutputDir, 0o755); err != nil {
		log.Fatalf("create report dir: %v", err)
	}

	worker, err := bootstrap.NewWorker(cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           worker.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject, "output_dir", cfg.ReportOutputDir)
	err = worker.Queue.SubscribeReports(ctx, func(_ context.Context, req *domain.DFormRequest) error {
		worker.Metrics.ObserveQueueLag(time.Since(req.GeneratedAt))
		worker.Metrics.StartRender()
		started := time.Now()

		path, err := writeReport(worker, cfg.ReportOutputDir, req)
		worker.Metrics.FinishRender(time.Since(started), err)
		if err != nil {
			logger.Error("dform render failed", "report_id", req.ID, "error", err)
			return err
		}
		logger.Info("dform written", "report_id", req.ID, "path", path, "cohorts", len(req.Cohorts))
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

// writeReport renders into a temp file and renames it so readers never see a
// partial workbook.
func writeReport(worker *bootstrap.Worker, dir string, req *domain.DFormRequest) (string, error) {
	tmp, err := os.CreateTemp(dir, ".dform-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	name, err := worker.Renderer.Render(req, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move report: %w", err)
	}
	return path, nil
}
