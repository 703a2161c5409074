package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

func TestReportCodecRoundTrip(t *testing.T) {
	req := &domain.DFormRequest{
		ID:       "rep-1",
		College:  "SVIT College",
		Rooms:    []string{"R1_Seating"},
		Snapshot: domain.Snapshot{"R1_Seating": {"21F01A0501": domain.StatusAbsent}},
		Stats:    domain.Stats{Total: 1, Absent: 1},
		Cohorts: []domain.CohortGroup{{
			Cohort: domain.Cohort{Code: "05", Name: "Computer Science & Engineering", Color: domain.RGB{R: 60, G: 179, B: 113}},
			Stats:  domain.Stats{Total: 1, Absent: 1},
		}},
		GeneratedAt: time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC),
	}

	payload, err := encodeReport(req)
	if err != nil {
		t.Fatalf("encodeReport() error = %v", err)
	}
	got, err := decodeReport(payload)
	if err != nil {
		t.Fatalf("decodeReport() error = %v", err)
	}
	if diff := cmp.Diff(req, got); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeReportRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"not json", `{"college":"x"}`} {
		if _, err := decodeReport([]byte(payload)); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("decodeReport(%q) expected ErrInvalidInput, got %v", payload, err)
		}
	}
	if _, err := encodeReport(nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("encodeReport(nil) expected ErrInvalidInput, got %v", err)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		temporary bool
	}{
		{name: "no servers", err: fmt.Errorf("nats publish: %w", nats.ErrNoServers), temporary: true},
		{name: "open circuit", err: gobreaker.ErrOpenState, temporary: true},
		{name: "canceled", err: context.Canceled, temporary: false},
		{name: "payload", err: errors.New("max payload exceeded"), temporary: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wrapTemporaryIfNeeded(tc.err)
			if domain.IsKind(got, domain.ErrTemporary) != tc.temporary {
				t.Fatalf("temporary = %v, want %v (err=%v)", !tc.temporary, tc.temporary, got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("expected wrapped error to be preserved, got %v", got)
			}
		})
	}
}
