package domain

import "testing"

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Absent ")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if got != StatusAbsent {
		t.Fatalf("ParseStatus() = %q, want %q", got, StatusAbsent)
	}
	if _, err := ParseStatus("late"); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatsPercentagesGuardEmptyTotal(t *testing.T) {
	var empty Stats
	if p := empty.Percentages(); p != (Percentages{}) {
		t.Fatalf("expected zero percentages, got %+v", p)
	}

	s := Stats{}
	for _, st := range []Status{StatusPresent, StatusPresent, StatusAbsent, StatusMalpractice} {
		s.Add(st)
	}
	if s != (Stats{Total: 4, Present: 2, Absent: 1, Malpractice: 1}) {
		t.Fatalf("unexpected stats %+v", s)
	}
	if p := s.Percentages(); p.Present != 50 || p.Absent != 25 || p.Malpractice != 25 {
		t.Fatalf("unexpected percentages %+v", p)
	}
}

func TestRGBTint(t *testing.T) {
	c := RGB{R: 60, G: 179, B: 113}
	if c.Hex() != "#3CB371" {
		t.Fatalf("Hex() = %s", c.Hex())
	}
	// 0.2*60 + 204 = 216, 0.2*179 + 204 = 239.8, 0.2*113 + 204 = 226.6
	if got := c.Tint(); got != (RGB{R: 216, G: 240, B: 227}) {
		t.Fatalf("Tint() = %+v", got)
	}
	if got := (RGB{R: 255, G: 255, B: 255}).Tint(); got != (RGB{R: 255, G: 255, B: 255}) {
		t.Fatalf("white tint = %+v", got)
	}
}

func TestExamDetailsMergeKeepsExisting(t *testing.T) {
	current := ExamDetails{ExamName: "B.Tech IV Year I Sem", SubjectCode: " "}
	merged := current.Merge(ExamDetails{ExamName: "ignored", SubjectCode: "CS501", Center: "SVIT"})
	if merged.ExamName != "B.Tech IV Year I Sem" || merged.SubjectCode != "CS501" || merged.Center != "SVIT" {
		t.Fatalf("unexpected merge %+v", merged)
	}
}
