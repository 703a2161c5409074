package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/ports"
	"github.com/kirillkom/exam-attendance/internal/core/roster"
)

// SourceParser turns an uploaded file into a roster result without touching
// any ledger.
type SourceParser struct {
	sheets  ports.SpreadsheetReader
	pdf     ports.PDFTextReader
	builder *roster.Builder
	pdfMode domain.IngestionMode
}

func NewSourceParser(
	sheets ports.SpreadsheetReader,
	pdf ports.PDFTextReader,
	builder *roster.Builder,
	pdfMode domain.IngestionMode,
) *SourceParser {
	if pdfMode == "" {
		pdfMode = domain.ModeAdhoc
	}
	return &SourceParser{
		sheets:  sheets,
		pdf:     pdf,
		builder: builder,
		pdfMode: pdfMode,
	}
}

// DetectSource picks the source kind from the file extension.
func DetectSource(filename string) (domain.SourceKind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return domain.SourceSpreadsheet, nil
	case ".pdf":
		return domain.SourcePDF, nil
	default:
		return "", domain.WrapError(
			domain.ErrInvalidInput,
			"detect source",
			fmt.Errorf("unsupported file type %q", filepath.Ext(filename)),
		)
	}
}

// ResolveMode applies the per-source default and rejects combinations the
// builder cannot serve.
func (p *SourceParser) ResolveMode(source domain.SourceKind, mode domain.IngestionMode) (domain.IngestionMode, error) {
	if mode == "" {
		if source == domain.SourcePDF {
			return p.pdfMode, nil
		}
		return domain.ModeSeating, nil
	}
	switch {
	case mode == domain.ModeAdhoc:
		return mode, nil
	case mode == domain.ModeSeating && source == domain.SourceSpreadsheet:
		return mode, nil
	case mode == domain.ModeRoomMarkers && source == domain.SourcePDF:
		return mode, nil
	default:
		return "", domain.WrapError(
			domain.ErrInvalidInput,
			"resolve mode",
			fmt.Errorf("mode %q does not apply to %s sources", mode, source),
		)
	}
}

func (p *SourceParser) Parse(
	ctx context.Context,
	filename string,
	source domain.SourceKind,
	mode domain.IngestionMode,
	data []byte,
) (roster.Result, error) {
	switch source {
	case domain.SourceSpreadsheet:
		sheets, err := p.sheets.ReadSheets(ctx, filename, bytes.NewReader(data))
		if err != nil {
			return roster.Result{}, fmt.Errorf("read spreadsheet: %w", err)
		}
		if mode == domain.ModeAdhoc {
			return p.builder.AdhocFromSheets(sheets), nil
		}
		return p.builder.FromSheets(sheets)
	case domain.SourcePDF:
		pages, err := p.pdf.ReadPages(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return roster.Result{}, fmt.Errorf("read pdf text: %w", err)
		}
		if mode == domain.ModeRoomMarkers {
			return p.builder.FromTextRooms(pages), nil
		}
		return p.builder.AdhocFromText(pages), nil
	default:
		return roster.Result{}, domain.WrapError(domain.ErrInvalidInput, "parse source", fmt.Errorf("unknown source %q", source))
	}
}
