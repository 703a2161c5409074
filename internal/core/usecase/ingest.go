package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/ports"
)

// Runner executes an ingestion attempt. The default runs it on a new
// goroutine.
type Runner func(func())

// IngestRosterUseCase accepts uploads and parses them off the request
// goroutine. Each attempt gets a sequence number per source kind; only the
// latest attempt of a kind may merge into the session.
type IngestRosterUseCase struct {
	session  *Session
	storage  ports.ObjectStorage
	parser   *SourceParser
	recorder ports.IngestionRecorder
	logger   *slog.Logger
	run      Runner
	now      func() time.Time

	mu      sync.Mutex
	jobs    map[string]*domain.Ingestion
	seq     map[domain.SourceKind]uint64
	cancels map[domain.SourceKind]context.CancelFunc
	wg      sync.WaitGroup
}

func NewIngestRosterUseCase(
	session *Session,
	storage ports.ObjectStorage,
	parser *SourceParser,
	recorder ports.IngestionRecorder,
	logger *slog.Logger,
) *IngestRosterUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestRosterUseCase{
		session:  session,
		storage:  storage,
		parser:   parser,
		recorder: recorder,
		logger:   logger,
		run:      func(f func()) { go f() },
		now:      func() time.Time { return time.Now().UTC() },
		jobs:     make(map[string]*domain.Ingestion),
		seq:      make(map[domain.SourceKind]uint64),
		cancels:  make(map[domain.SourceKind]context.CancelFunc),
	}
}

func (uc *IngestRosterUseCase) Upload(
	ctx context.Context,
	filename string,
	mode domain.IngestionMode,
	body io.Reader,
) (*domain.Ingestion, error) {
	source, err := DetectSource(filename)
	if err != nil {
		return nil, err
	}
	mode, err = uc.parser.ResolveMode(source, mode)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	now := uc.now()
	job := &domain.Ingestion{
		ID:          id,
		Source:      source,
		Mode:        mode,
		Filename:    filename,
		StoragePath: storageKey,
		Status:      domain.IngestionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The attempt outlives the request, so it hangs off a fresh context.
	attemptCtx, cancel := context.WithCancel(context.Background())

	uc.mu.Lock()
	uc.seq[source]++
	job.Sequence = uc.seq[source]
	if prev, ok := uc.cancels[source]; ok {
		prev()
	}
	uc.cancels[source] = cancel
	uc.jobs[id] = job
	out := *job
	uc.mu.Unlock()

	uc.wg.Add(1)
	uc.run(func() {
		defer uc.wg.Done()
		defer cancel()
		uc.process(attemptCtx, id)
	})

	return &out, nil
}

func (uc *IngestRosterUseCase) GetByID(_ context.Context, id string) (*domain.Ingestion, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	job, ok := uc.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrIngestionNotFound, "get ingestion", fmt.Errorf("id %q", id))
	}
	out := *job
	return &out, nil
}

// Wait blocks until every started attempt has finished.
func (uc *IngestRosterUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *IngestRosterUseCase) process(ctx context.Context, id string) {
	job := uc.update(id, func(j *domain.Ingestion) { j.Status = domain.IngestionRunning })
	defer uc.cleanup(job.StoragePath)

	data, err := uc.load(ctx, job.StoragePath)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		uc.finish(id, job, err)
		return
	}

	res, err := uc.parser.Parse(ctx, job.Filename, job.Source, job.Mode, data)
	if err != nil {
		uc.finish(id, job, err)
		return
	}

	uc.mu.Lock()
	stale := uc.seq[job.Source] != job.Sequence || ctx.Err() != nil
	if stale {
		uc.mu.Unlock()
		uc.finish(id, job, domain.WrapError(
			domain.ErrStaleIngestion,
			"merge roster",
			fmt.Errorf("superseded by a newer %s upload", job.Source),
		))
		return
	}
	relocations, err := uc.session.Apply(res)
	uc.mu.Unlock()
	if err != nil {
		uc.finish(id, job, err)
		return
	}

	warnings := append([]string(nil), res.Warnings...)
	for _, r := range relocations {
		warnings = append(warnings, fmt.Sprintf("hall ticket %s moved from room %q to %q keeping status %s", r.HallTicket, r.FromRoom, r.ToRoom, r.Status))
	}
	for _, w := range res.Warnings {
		uc.logger.Warn("ingestion warning", "ingestion_id", id, "warning", w)
	}

	uc.update(id, func(j *domain.Ingestion) {
		j.Rooms = res.Labels()
		j.Candidates = res.Candidates()
		j.Warnings = warnings
		j.Relocations = relocations
		j.ExamInfo = res.ExamInfo
	})
	uc.finish(id, job, nil)
}

func (uc *IngestRosterUseCase) load(ctx context.Context, key string) ([]byte, error) {
	rc, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open stored source: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read stored source: %w", err)
	}
	return data, nil
}

func (uc *IngestRosterUseCase) finish(id string, job domain.Ingestion, processErr error) {
	status := domain.IngestionCompleted
	switch {
	case processErr == nil:
	case errors.Is(processErr, domain.ErrStaleIngestion), errors.Is(processErr, context.Canceled):
		status = domain.IngestionDiscarded
	default:
		status = domain.IngestionFailed
	}

	final := uc.update(id, func(j *domain.Ingestion) {
		j.Status = status
		if processErr != nil {
			j.Error = processErr.Error()
		}
	})

	if uc.recorder != nil {
		uc.recorder.RecordIngestion(job.Source, status, final.Candidates)
	}

	attrs := []any{
		"ingestion_id", id,
		"source", job.Source,
		"mode", job.Mode,
		"sequence", job.Sequence,
		"status", status,
		"rooms", len(final.Rooms),
		"candidates", final.Candidates,
	}
	switch status {
	case domain.IngestionCompleted:
		uc.logger.Info("ingestion completed", attrs...)
	case domain.IngestionDiscarded:
		uc.logger.Info("ingestion discarded", append(attrs, "reason", processErr.Error())...)
	default:
		uc.logger.Error("ingestion failed", append(attrs, "error", processErr.Error())...)
	}
}

func (uc *IngestRosterUseCase) update(id string, mutate func(*domain.Ingestion)) domain.Ingestion {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	job := uc.jobs[id]
	mutate(job)
	job.UpdatedAt = uc.now()
	return *job
}

func (uc *IngestRosterUseCase) cleanup(key string) {
	if err := uc.storage.Remove(context.Background(), key); err != nil {
		uc.logger.Warn("remove stored source failed", "storage_path", key, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "roster.bin"
	}
	return base
}
