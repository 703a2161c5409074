package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

type publisherFake struct {
	published *domain.DFormRequest
	err       error
}

func (f *publisherFake) PublishReport(_ context.Context, req *domain.DFormRequest) error {
	if f.err != nil {
		return f.err
	}
	f.published = req
	return nil
}

type rendererFake struct {
	got *domain.DFormRequest
}

func (f *rendererFake) Render(req *domain.DFormRequest, w io.Writer) (string, error) {
	f.got = req
	_, err := io.WriteString(w, "workbook")
	return "D-Form.xlsx", err
}

func reportSession(t *testing.T) *Session {
	t.Helper()
	s := newTestSession()
	_, err := s.Apply(seatingResult(t,
		domain.Sheet{Name: "R1_Seating", Rows: [][]string{{cse1, it1}}},
		domain.Sheet{Name: "R2_Seating", Rows: [][]string{{cse2}}},
	))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return s
}

func TestReportBuildAllBranches(t *testing.T) {
	s := reportSession(t)
	if _, err := s.SetStatus("R2_Seating", cse2, domain.StatusAbsent); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	uc := NewReportUseCase(s, nil, &rendererFake{}, "SVIT College")

	req, err := uc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.ID == "" || req.College != "SVIT College" {
		t.Fatalf("unexpected header %+v", req)
	}
	if req.Stats != (domain.Stats{Total: 3, Present: 2, Absent: 1}) {
		t.Fatalf("unexpected stats %+v", req.Stats)
	}
	codes := make([]string, 0, len(req.Cohorts))
	for _, g := range req.Cohorts {
		codes = append(codes, g.Cohort.Code)
	}
	if diff := cmp.Diff([]string{"05", "12"}, codes); diff != "" {
		t.Fatalf("cohort codes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.Snapshot(), req.Snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// The request is detached from later edits.
	if _, err := s.SetStatus("R1_Seating", cse1, domain.StatusMalpractice); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if req.Snapshot["R1_Seating"][cse1] != domain.StatusPresent {
		t.Fatal("expected report snapshot to be unaffected by later edits")
	}
}

func TestReportBuildSelectedBranch(t *testing.T) {
	s := reportSession(t)
	s.SetExamDetails(domain.ExamDetails{Branch: "12", SubjectCode: "CS501"})
	uc := NewReportUseCase(s, nil, &rendererFake{}, "SVIT College")

	req, err := uc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(req.Cohorts) != 1 || req.Cohorts[0].Cohort.Code != "12" {
		t.Fatalf("expected only branch 12, got %+v", req.Cohorts)
	}
	if req.Stats.Total != 1 || req.Exam.SubjectCode != "CS501" {
		t.Fatalf("unexpected branch report %+v", req)
	}

	s.SetExamDetails(domain.ExamDetails{Branch: "00"})
	req, err = uc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(req.Cohorts) != 2 {
		t.Fatalf("expected branch 00 to select every cohort, got %d", len(req.Cohorts))
	}
}

func TestReportPublish(t *testing.T) {
	s := reportSession(t)
	pub := &publisherFake{}
	uc := NewReportUseCase(s, pub, &rendererFake{}, "SVIT College")

	req, err := uc.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if pub.published == nil || pub.published.ID != req.ID {
		t.Fatalf("expected published request %s", req.ID)
	}

	pub.err = errors.New("broker down")
	if _, err := uc.Publish(context.Background()); err == nil || !strings.Contains(err.Error(), "publish report") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestReportPublishDisabled(t *testing.T) {
	uc := NewReportUseCase(reportSession(t), nil, &rendererFake{}, "SVIT College")
	if _, err := uc.Publish(context.Background()); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestReportRender(t *testing.T) {
	renderer := &rendererFake{}
	uc := NewReportUseCase(reportSession(t), nil, renderer, "SVIT College")

	var buf bytes.Buffer
	name, err := uc.Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if name != "D-Form.xlsx" || buf.String() != "workbook" || renderer.got == nil {
		t.Fatalf("unexpected render result name=%s body=%q", name, buf.String())
	}
}
