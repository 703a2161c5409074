package pdftext

import (
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

// Reader extracts the text layer of a PDF page by page.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadPages(ctx context.Context, body io.ReaderAt, size int64) (pages []string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, domain.WrapError(domain.ErrMalformedSource, "read pdf", fmt.Errorf("%v", rec))
		}
	}()

	doc, err := pdf.NewReader(body, size)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMalformedSource, "open pdf", err)
	}

	total := doc.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.WrapError(domain.ErrMalformedSource, "extract pdf text", fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, text)
	}
	return pages, nil
}
