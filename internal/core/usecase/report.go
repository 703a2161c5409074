package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/ports"
)

var errPublishingDisabled = errors.New("report publishing is disabled")

type ReportUseCase struct {
	session   *Session
	publisher ports.ReportPublisher
	renderer  ports.ReportRenderer
	college   string
	now       func() time.Time
}

// NewReportUseCase wires report assembly. publisher may be nil when reports
// are only rendered in-process.
func NewReportUseCase(
	session *Session,
	publisher ports.ReportPublisher,
	renderer ports.ReportRenderer,
	college string,
) *ReportUseCase {
	return &ReportUseCase{
		session:   session,
		publisher: publisher,
		renderer:  renderer,
		college:   college,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Build assembles a D-Form request from one consistent read of the session.
func (uc *ReportUseCase) Build(_ context.Context) (*domain.DFormRequest, error) {
	v := uc.session.reportView()
	return &domain.DFormRequest{
		ID:          uuid.NewString(),
		College:     uc.college,
		Exam:        v.exam,
		Rooms:       v.rooms,
		Snapshot:    v.snapshot,
		Stats:       v.stats,
		Cohorts:     v.cohorts,
		GeneratedAt: uc.now(),
	}, nil
}

func (uc *ReportUseCase) Publish(ctx context.Context) (*domain.DFormRequest, error) {
	if uc.publisher == nil {
		return nil, domain.WrapError(domain.ErrTemporary, "publish report", errPublishingDisabled)
	}
	req, err := uc.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.publisher.PublishReport(ctx, req); err != nil {
		return nil, fmt.Errorf("publish report: %w", err)
	}
	return req, nil
}

// Render writes the D-Form document to w and returns its file name.
func (uc *ReportUseCase) Render(ctx context.Context, w io.Writer) (string, error) {
	req, err := uc.Build(ctx)
	if err != nil {
		return "", err
	}
	name, err := uc.renderer.Render(req, w)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return name, nil
}
