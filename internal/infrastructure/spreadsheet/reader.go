// Package spreadsheet reads workbooks into named cell grids. .xlsx/.xlsm go
// through excelize, legacy .xls through extrame/xls.
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadSheets(ctx context.Context, filename string, body io.ReadSeeker) ([]domain.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		return readXLS(body)
	default:
		return readXLSX(ctx, body)
	}
}

func readXLSX(ctx context.Context, body io.Reader) ([]domain.Sheet, error) {
	file, err := excelize.OpenReader(body)
	if err != nil {
		return nil, malformed("open xlsx workbook", err)
	}
	defer func() { _ = file.Close() }()

	names := file.GetSheetList()
	sheets := make([]domain.Sheet, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := file.GetRows(name)
		if err != nil {
			return nil, malformed("read xlsx sheet", fmt.Errorf("sheet %q: %w", name, err))
		}
		sheets = append(sheets, domain.Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

func readXLS(body io.ReadSeeker) (sheets []domain.Sheet, err error) {
	// extrame/xls panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, malformed("read xls workbook", fmt.Errorf("%v", r))
		}
	}()

	workbook, err := xls.OpenReader(body, "utf-8")
	if err != nil {
		return nil, malformed("open xls workbook", err)
	}
	for i := 0; i < workbook.NumSheets(); i++ {
		sheet := workbook.GetSheet(i)
		if sheet == nil {
			continue
		}
		sheets = append(sheets, domain.Sheet{Name: sheet.Name, Rows: xlsRows(sheet)})
	}
	return sheets, nil
}

func xlsRows(sheet *xls.WorkSheet) [][]string {
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()-row.FirstCol()+1)
		for j := row.FirstCol(); j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows
}

func malformed(op string, err error) error {
	return domain.WrapError(domain.ErrMalformedSource, op, err)
}
