package ports

import (
	"context"
	"io"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

// RosterIngestor is the inbound contract for seating-plan uploads.
type RosterIngestor interface {
	Upload(ctx context.Context, filename string, mode domain.IngestionMode, body io.Reader) (*domain.Ingestion, error)
	GetByID(ctx context.Context, id string) (*domain.Ingestion, error)
}

// AttendanceService is the inbound contract for reading and editing the ledger.
type AttendanceService interface {
	Rooms() []string
	RoomView(room string, filter domain.Status) (domain.RoomView, error)
	SetStatus(room, hallTicket string, status domain.Status) (domain.Stats, error)
	BulkSetStatus(room string, status domain.Status) (domain.Stats, int, error)
	Edit(edit domain.CandidateEdit) (domain.Stats, error)
	Stats(rooms []string) domain.Stats
	CohortGroups(rooms []string, filter domain.Status) []domain.CohortGroup
	CohortView(code string, rooms []string, filter domain.Status) domain.CohortGroup
	Snapshot() domain.Snapshot
	ExamDetails() domain.ExamDetails
	SetExamDetails(details domain.ExamDetails)
	Reset()
}

// ReportService is the inbound contract for D-Form assembly.
type ReportService interface {
	Build(ctx context.Context) (*domain.DFormRequest, error)
	Publish(ctx context.Context) (*domain.DFormRequest, error)
	Render(ctx context.Context, w io.Writer) (string, error)
}
