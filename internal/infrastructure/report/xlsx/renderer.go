// Package xlsx renders D-Form workbooks: one sheet per cohort with the hall
// ticket grid and the attendance summary, plus an overview sheet.
package xlsx

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

const (
	overviewSheet  = "Overview"
	gridColumns    = 5
	maxSheetName   = 31
	defaultExam    = "B.Tech Regular Examinations"
	defaultReg     = "R20"
	blankField     = "_______"
	blankDate      = "___/___/____"
	absentColor    = "FF0000"
	malpracticeHex = "FF8000"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	sheetIllegal = regexp.MustCompile(`[\[\]:*?/\\]`)
	fileIllegal  = regexp.MustCompile(`[/\\:*?"<>|\x00]`)
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// FileName follows D-Form_{code}_{Branch_Name}_{YYYY-MM-DD}.xlsx for a
// single cohort and D-Form_All_{YYYY-MM-DD}.xlsx otherwise.
func FileName(req *domain.DFormRequest) string {
	date := reportDate(req).Format("2006-01-02")
	if len(req.Cohorts) == 1 {
		c := req.Cohorts[0].Cohort
		name := fileIllegal.ReplaceAllString(whitespace.ReplaceAllString(c.Name, "_"), "-")
		code := fileIllegal.ReplaceAllString(c.Code, "-")
		return fmt.Sprintf("D-Form_%s_%s_%s.xlsx", code, name, date)
	}
	return fmt.Sprintf("D-Form_All_%s.xlsx", date)
}

func (r *Renderer) Render(req *domain.DFormRequest, w io.Writer) (string, error) {
	if req == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "render dform", fmt.Errorf("nil request"))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	styles, err := newStyles(f)
	if err != nil {
		return "", err
	}
	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return "", fmt.Errorf("rename overview sheet: %w", err)
	}
	if err := writeOverview(f, styles, req); err != nil {
		return "", err
	}
	for _, group := range req.Cohorts {
		if err := writeCohort(f, styles, req, group); err != nil {
			return "", err
		}
	}

	if err := f.Write(w); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	return FileName(req), nil
}

type styles struct {
	bold        int
	absent      int
	malpractice int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("create bold style: %w", err)
	}
	if s.absent, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: absentColor},
		Border: boxBorder(absentColor),
	}); err != nil {
		return s, fmt.Errorf("create absent style: %w", err)
	}
	if s.malpractice, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: malpracticeHex}}); err != nil {
		return s, fmt.Errorf("create malpractice style: %w", err)
	}
	return s, nil
}

func boxBorder(color string) []excelize.Border {
	out := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "right", "bottom"} {
		out = append(out, excelize.Border{Type: side, Color: color, Style: 1})
	}
	return out
}

func writeOverview(f *excelize.File, st styles, req *domain.DFormRequest) error {
	sw := sheetWriter{f: f, sheet: overviewSheet}
	sw.row(st.bold, req.College)
	sw.row(st.bold, "D-FORM SUMMARY")
	sw.row(0, "Examination", examTitle(req.Exam))
	sw.row(0, "Subject", subjectLine(req.Exam))
	sw.row(0, "Date", examDate(req.Exam))
	sw.row(0, "Rooms", strings.Join(req.Rooms, ", "))
	sw.row(0, "Generated", req.GeneratedAt.Format(time.RFC3339))
	sw.skip()
	sw.row(st.bold, "Branch Code", "Branch", "Registered", "Present", "Absent", "Mal. Practice", "Present %")
	for _, g := range req.Cohorts {
		sw.row(0, g.Cohort.Code, g.Cohort.Name, g.Stats.Total, g.Stats.Present, g.Stats.Absent, g.Stats.Malpractice,
			fmt.Sprintf("%.1f", g.Stats.Percent(g.Stats.Present)))
	}
	sw.row(st.bold, "", "Total", req.Stats.Total, req.Stats.Present, req.Stats.Absent, req.Stats.Malpractice,
		fmt.Sprintf("%.1f", req.Stats.Percent(req.Stats.Present)))
	return sw.err
}

func writeCohort(f *excelize.File, st styles, req *domain.DFormRequest, group domain.CohortGroup) error {
	name := sheetName(group.Cohort)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(group.Cohort.Color.Tint().Hex(), "#")}},
	})
	if err != nil {
		return fmt.Errorf("create cohort style: %w", err)
	}

	sw := sheetWriter{f: f, sheet: name}
	sw.row(header, req.College, "", "", "", fmt.Sprintf("BRANCH CODE: %s", group.Cohort.Code))
	sw.row(st.bold, "D-FORM")
	sw.row(0, fmt.Sprintf("NAME OF THE EXAMINATION :: %s", examTitle(req.Exam)))
	sw.row(0, fmt.Sprintf("NAME OF THE SUBJECT & SUBJECT CODE :: %s", subjectLine(req.Exam)), "", "", "",
		fmt.Sprintf("Regulation: %s", orDefault(req.Exam.Regulation, defaultReg)))
	sw.row(0, fmt.Sprintf("DATE OF THE EXAMINATION :: %s", examDate(req.Exam)), "", "", "", "SESSION: FN")
	sw.skip()
	sw.row(st.bold, "Hall ticket Numbers of candidates registered:")

	cells := make([]any, 0, gridColumns)
	cellStyles := make([]int, 0, gridColumns)
	flush := func() {
		sw.styledRow(cells, cellStyles)
		cells, cellStyles = cells[:0], cellStyles[:0]
	}
	for _, s := range group.Students {
		cells = append(cells, s.HallTicket)
		switch s.Status {
		case domain.StatusAbsent:
			cellStyles = append(cellStyles, st.absent)
		case domain.StatusMalpractice:
			cellStyles = append(cellStyles, st.malpractice)
		default:
			cellStyles = append(cellStyles, 0)
		}
		if len(cells) == gridColumns {
			flush()
		}
	}
	if len(cells) > 0 {
		flush()
	}

	sw.skip()
	sw.row(st.bold, "No. of Students Registered", "No. of Students Absent", "No. of Mal. Practice Cases", "No. of Students Present")
	sw.row(0, group.Stats.Total, group.Stats.Absent, group.Stats.Malpractice, group.Stats.Present)
	sw.row(0, "* H.T. Numbers of absentees are boxed in RED")
	sw.skip()
	sw.row(st.bold, "OBSERVER", "", "", "CHIEF SUPERINTENDENT")
	return sw.err
}

// sheetWriter appends rows and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (w *sheetWriter) skip() {
	w.next++
}

func (w *sheetWriter) row(style int, values ...any) {
	styles := make([]int, len(values))
	for i := range styles {
		styles[i] = style
	}
	w.styledRow(values, styles)
}

func (w *sheetWriter) styledRow(values []any, styles []int) {
	w.next++
	if w.err != nil {
		return
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.next)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			w.err = fmt.Errorf("set %s!%s: %w", w.sheet, cell, err)
			return
		}
		if styles[i] == 0 {
			continue
		}
		if err := w.f.SetCellStyle(w.sheet, cell, cell, styles[i]); err != nil {
			w.err = fmt.Errorf("style %s!%s: %w", w.sheet, cell, err)
			return
		}
	}
}

func sheetName(c domain.Cohort) string {
	name := sheetIllegal.ReplaceAllString(fmt.Sprintf("%s %s", c.Code, c.Name), "-")
	if runes := []rune(name); len(runes) > maxSheetName {
		name = strings.TrimSpace(string(runes[:maxSheetName]))
	}
	return name
}

func examTitle(d domain.ExamDetails) string {
	return fmt.Sprintf("%s - %s", orDefault(d.ExamName, defaultExam), orDefault(d.Regulation, defaultReg))
}

func subjectLine(d domain.ExamDetails) string {
	return fmt.Sprintf("%s - %s", orDefault(d.SubjectName, blankField), orDefault(d.SubjectCode, blankField))
}

func examDate(d domain.ExamDetails) string {
	if t, ok := parseDate(d.ExamDate); ok {
		return t.Format("02/01/2006")
	}
	return orDefault(d.ExamDate, blankDate)
}

// reportDate prefers the exam date and falls back to the generation time.
func reportDate(req *domain.DFormRequest) time.Time {
	if t, ok := parseDate(req.Exam.ExamDate); ok {
		return t
	}
	if req.GeneratedAt.IsZero() {
		return time.Now().UTC()
	}
	return req.GeneratedAt
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
