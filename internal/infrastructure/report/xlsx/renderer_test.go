package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

func sampleRequest() *domain.DFormRequest {
	cse := domain.Cohort{Code: "05", Name: "Computer Science & Engineering", Color: domain.RGB{R: 60, G: 179, B: 113}}
	return &domain.DFormRequest{
		ID:      "rep-1",
		College: "SVIT College",
		Exam:    domain.ExamDetails{ExamName: "B.Tech IV Year I Sem", ExamDate: "2025-01-12", SubjectCode: "CS501"},
		Rooms:   []string{"R1_Seating"},
		Stats:   domain.Stats{Total: 6, Present: 4, Absent: 1, Malpractice: 1},
		Cohorts: []domain.CohortGroup{{
			Cohort: cse,
			Students: []domain.CohortStudent{
				{Entry: domain.Entry{HallTicket: "21F01A0501", Status: domain.StatusPresent}},
				{Entry: domain.Entry{HallTicket: "21F01A0502", Status: domain.StatusAbsent}},
				{Entry: domain.Entry{HallTicket: "21F01A0503", Status: domain.StatusMalpractice}},
				{Entry: domain.Entry{HallTicket: "21F01A0504", Status: domain.StatusPresent}},
				{Entry: domain.Entry{HallTicket: "21F01A0505", Status: domain.StatusPresent}},
				{Entry: domain.Entry{HallTicket: "21F01A0506", Status: domain.StatusPresent}},
			},
			Stats: domain.Stats{Total: 6, Present: 4, Absent: 1, Malpractice: 1},
		}},
		GeneratedAt: time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestFileName(t *testing.T) {
	req := sampleRequest()
	if got := FileName(req); got != "D-Form_05_Computer_Science_&_Engineering_2025-01-12.xlsx" {
		t.Fatalf("unexpected single-branch name %q", got)
	}

	req.Exam.ExamDate = ""
	req.Cohorts = append(req.Cohorts, domain.CohortGroup{Cohort: domain.Cohort{Code: "12", Name: "Information Technology"}})
	if got := FileName(req); got != "D-Form_All_2025-01-20.xlsx" {
		t.Fatalf("unexpected all-branch name %q", got)
	}
}

func TestRenderWritesCohortSheet(t *testing.T) {
	var buf bytes.Buffer
	name, err := NewRenderer().Render(sampleRequest(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if name == "" {
		t.Fatal("expected file name")
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != overviewSheet || sheets[1] != "05 Computer Science & Engineeri" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(sheets[1])
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	var grid [][]string
	for i, row := range rows {
		if len(row) > 0 && row[0] == "Hall ticket Numbers of candidates registered:" {
			grid = rows[i+1 : i+3]
			break
		}
	}
	if len(grid) != 2 || len(grid[0]) != gridColumns || grid[1][0] != "21F01A0506" {
		t.Fatalf("unexpected hall ticket grid %v", grid)
	}

	var summary []string
	for i, row := range rows {
		if len(row) > 0 && row[0] == "No. of Students Registered" {
			summary = rows[i+1]
		}
	}
	if len(summary) != 4 || summary[0] != "6" || summary[1] != "1" || summary[2] != "1" || summary[3] != "4" {
		t.Fatalf("unexpected summary row %v", summary)
	}
}

func TestRenderEmptyRequest(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewRenderer().Render(&domain.DFormRequest{College: "SVIT College"}, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, err := NewRenderer().Render(nil, &buf); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil request, got %v", err)
	}
}

func TestFileNameReplacesPathSeparators(t *testing.T) {
	req := sampleRequest()
	req.Cohorts[0].Cohort.Name = `CSE/AI\ML`
	got := FileName(req)
	if got != "D-Form_05_CSE-AI-ML_2025-01-12.xlsx" {
		t.Fatalf("unexpected file name %q", got)
	}
	if filepath.Base(got) != got {
		t.Fatalf("file name %q must not contain a directory", got)
	}
}

func TestSheetNameTruncatesByRune(t *testing.T) {
	cohort := domain.Cohort{Code: "05", Name: "xИнформатика и вычислительная техника"}
	name := sheetName(cohort)
	if !utf8.ValidString(name) {
		t.Fatalf("sheet name %q is not valid UTF-8", name)
	}
	if n := utf8.RuneCountInString(name); n > maxSheetName {
		t.Fatalf("sheet name has %d characters, want at most %d", n, maxSheetName)
	}

	req := sampleRequest()
	req.Cohorts[0].Cohort = cohort
	var buf bytes.Buffer
	if _, err := NewRenderer().Render(req, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[1] != name {
		t.Fatalf("unexpected sheets %q, want cohort sheet %q", sheets, name)
	}
}
