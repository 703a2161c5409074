package ports

import (
	"context"
	"io"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

// SpreadsheetReader yields every sheet of a workbook as a cell grid.
type SpreadsheetReader interface {
	ReadSheets(ctx context.Context, filename string, body io.ReadSeeker) ([]domain.Sheet, error)
}

// PDFTextReader yields the text layer of a PDF, one string per page.
type PDFTextReader interface {
	ReadPages(ctx context.Context, body io.ReaderAt, size int64) ([]string, error)
}

// ObjectStorage spools uploaded sources.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ReportPublisher hands assembled D-Form requests to the worker.
type ReportPublisher interface {
	PublishReport(ctx context.Context, req *domain.DFormRequest) error
}

// ReportSubscriber consumes D-Form requests.
type ReportSubscriber interface {
	SubscribeReports(ctx context.Context, handler func(context.Context, *domain.DFormRequest) error) error
}

// ReportRenderer writes a D-Form document and returns its file name.
type ReportRenderer interface {
	Render(req *domain.DFormRequest, w io.Writer) (string, error)
}

// IngestionRecorder observes ingestion outcomes.
type IngestionRecorder interface {
	RecordIngestion(source domain.SourceKind, status domain.IngestionStatus, candidates int)
}
