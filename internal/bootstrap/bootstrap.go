package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/exam-attendance/internal/config"
	"github.com/kirillkom/exam-attendance/internal/core/cohort"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/hallticket"
	"github.com/kirillkom/exam-attendance/internal/core/ports"
	"github.com/kirillkom/exam-attendance/internal/core/roster"
	"github.com/kirillkom/exam-attendance/internal/core/usecase"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/cohorttable"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/pdftext"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/queue/nats"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/resilience"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/spreadsheet"
	"github.com/kirillkom/exam-attendance/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/exam-attendance/internal/observability/metrics"
)

// Core is the storage-free part of the graph shared by the API and the CLI.
type Core struct {
	Classifier *cohort.Classifier
	Parser     *usecase.SourceParser
	Renderer   *xlsx.Renderer
}

func NewCore(cfg config.Config) (*Core, error) {
	table, err := cohorttable.Load(cfg.CohortTablePath)
	if err != nil {
		return nil, fmt.Errorf("load cohort table: %w", err)
	}
	cellPolicy, err := hallticket.ParsePolicy(cfg.CellMatchPolicy)
	if err != nil {
		return nil, fmt.Errorf("cell match policy: %w", err)
	}
	textPolicy, err := hallticket.ParsePolicy(cfg.TextMatchPolicy)
	if err != nil {
		return nil, fmt.Errorf("text match policy: %w", err)
	}
	pdfMode, err := parsePDFRoomMode(cfg.PDFRoomMode)
	if err != nil {
		return nil, err
	}

	builder := roster.NewBuilder(
		hallticket.NewExtractor(cellPolicy, textPolicy),
		cfg.SeatingSheetMarker,
		cfg.AdhocRoomName,
	)
	parser := usecase.NewSourceParser(spreadsheet.NewReader(), pdftext.NewReader(), builder, pdfMode)

	return &Core{
		Classifier: cohort.NewClassifier(table),
		Parser:     parser,
		Renderer:   xlsx.NewRenderer(),
	}, nil
}

type App struct {
	Config config.Config
	Core   *Core

	Session  *usecase.Session
	IngestUC *usecase.IngestRosterUseCase
	ReportUC *usecase.ReportUseCase
	Metrics  *metrics.HTTPServerMetrics

	closeFn func()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	core, err := NewCore(cfg)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	var publisher ports.ReportPublisher
	closeFn := func() {}
	if cfg.ReportPublishEnabled {
		queue, err := newReportQueue(cfg, logger)
		if err != nil {
			return nil, err
		}
		publisher = queue
		closeFn = queue.Close
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	session := usecase.NewSession(core.Classifier, logger)
	ingestUC := usecase.NewIngestRosterUseCase(session, storage, core.Parser, httpMetrics, logger)
	reportUC := usecase.NewReportUseCase(session, publisher, core.Renderer, cfg.CollegeName)

	return &App{
		Config:   cfg,
		Core:     core,
		Session:  session,
		IngestUC: ingestUC,
		ReportUC: reportUC,
		Metrics:  httpMetrics,
		closeFn:  closeFn,
	}, nil
}

func (a *App) Close() {
	if a.IngestUC != nil {
		a.IngestUC.Wait()
	}
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker renders D-Form requests received from the broker.
type Worker struct {
	Config   config.Config
	Queue    *nats.ReportQueue
	Renderer *xlsx.Renderer
	Metrics  *metrics.WorkerMetrics
}

func NewWorker(cfg config.Config, logger *slog.Logger) (*Worker, error) {
	queue, err := newReportQueue(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Worker{
		Config:   cfg,
		Queue:    queue,
		Renderer: xlsx.NewRenderer(),
		Metrics:  metrics.NewWorkerMetrics("worker"),
	}, nil
}

func (w *Worker) Close() {
	w.Queue.Close()
}

func newReportQueue(cfg config.Config, logger *slog.Logger) (*nats.ReportQueue, error) {
	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init report queue: %w", err)
	}
	return queue, nil
}

func parsePDFRoomMode(raw string) (domain.IngestionMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "single":
		return domain.ModeAdhoc, nil
	case "markers", "rooms":
		return domain.ModeRoomMarkers, nil
	default:
		return "", fmt.Errorf("unknown PDF_ROOM_MODE %q", raw)
	}
}
