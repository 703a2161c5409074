package ledger

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

const (
	cse1 = "21F01A0501"
	cse2 = "21F01A0502"
	it1  = "21F01A1201"
	civ1 = "21F01A0101"
)

func seeded(t *testing.T) *Ledger {
	t.Helper()
	l := New()
	if _, err := l.Merge("Room 1_Seating", []string{cse1, it1, cse1}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, err := l.Merge("Room 2_Seating", []string{cse2, civ1}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	return l
}

func TestMergeSeedsPresentAndDeduplicates(t *testing.T) {
	l := seeded(t)

	got, err := l.ListByRoom("Room 1_Seating")
	if err != nil {
		t.Fatalf("ListByRoom() error = %v", err)
	}
	want := []domain.Entry{
		{HallTicket: cse1, Status: domain.StatusPresent, Room: "Room 1_Seating"},
		{HallTicket: it1, Status: domain.StatusPresent, Room: "Room 1_Seating"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListByRoom() mismatch (-want +got):\n%s", diff)
	}
	if l.Len() != 4 {
		t.Fatalf("expected 4 candidates, got %d", l.Len())
	}
	if diff := cmp.Diff([]string{"Room 1_Seating", "Room 2_Seating"}, l.Rooms()); diff != "" {
		t.Fatalf("Rooms() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEmptyRoomIsRegistered(t *testing.T) {
	l := New()
	if _, err := l.Merge("Empty_Seating", nil); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !l.HasRoom("Empty_Seating") {
		t.Fatalf("expected empty room to be registered")
	}
	entries, err := l.ListByRoom("Empty_Seating")
	if err != nil || len(entries) != 0 {
		t.Fatalf("ListByRoom() = %v, %v", entries, err)
	}
	if stats := Aggregate(l, []string{"Empty_Seating"}); stats != (domain.Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestMergeRejectsEmptyLabel(t *testing.T) {
	l := New()
	if _, err := l.Merge("  ", []string{cse1}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(l.Rooms()) != 0 || l.Len() != 0 {
		t.Fatalf("ledger must stay empty")
	}
}

func TestMergeIsIdempotentAndKeepsStatuses(t *testing.T) {
	l := New()
	if _, err := l.Merge("PDF_Extracted_Room", []string{cse1, cse2}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if err := l.SetStatus("PDF_Extracted_Room", cse1, domain.StatusAbsent); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if _, err := l.Merge("PDF_Extracted_Room", []string{cse1, it1}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if diff := cmp.Diff([]string{"PDF_Extracted_Room"}, l.Rooms()); diff != "" {
		t.Fatalf("Rooms() mismatch (-want +got):\n%s", diff)
	}
	status, err := l.Status("PDF_Extracted_Room", cse1)
	if err != nil || status != domain.StatusAbsent {
		t.Fatalf("expected absent to survive re-import, got %s, %v", status, err)
	}
	if stats := AggregateAll(l); stats.Total != 3 {
		t.Fatalf("expected union of 3 candidates, got %+v", stats)
	}
}

func TestMergeRelocatesCrossRoomDuplicates(t *testing.T) {
	l := seeded(t)
	if err := l.SetStatus("Room 2_Seating", cse2, domain.StatusMalpractice); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	relocations, err := l.Merge("Room 3_Seating", []string{cse2})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	want := []domain.Relocation{{HallTicket: cse2, FromRoom: "Room 2_Seating", ToRoom: "Room 3_Seating", Status: domain.StatusMalpractice}}
	if diff := cmp.Diff(want, relocations); diff != "" {
		t.Fatalf("relocations mismatch (-want +got):\n%s", diff)
	}
	room, status, ok := l.Locate(cse2)
	if !ok || room != "Room 3_Seating" {
		t.Fatalf("expected candidate in Room 3_Seating, got %q", room)
	}
	if status != domain.StatusMalpractice {
		t.Fatalf("expected status to survive the move, got %q", status)
	}
	if _, err := l.Status("Room 2_Seating", cse2); !domain.IsKind(err, domain.ErrCandidateNotFound) {
		t.Fatalf("expected candidate removed from Room 2_Seating, got %v", err)
	}
	if l.Len() != 4 {
		t.Fatalf("expected 4 candidates, got %d", l.Len())
	}
}

func TestSetStatusRoundTripAndStatsDeltas(t *testing.T) {
	l := seeded(t)
	rooms := []string{"Room 1_Seating"}
	before := Aggregate(l, rooms)

	if err := l.SetStatus("Room 1_Seating", cse1, domain.StatusAbsent); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	status, err := l.Status("Room 1_Seating", cse1)
	if err != nil || status != domain.StatusAbsent {
		t.Fatalf("Status() = %s, %v", status, err)
	}

	after := Aggregate(l, rooms)
	if after.Total != before.Total {
		t.Fatalf("total must not change: %d -> %d", before.Total, after.Total)
	}
	if after.Present != before.Present-1 || after.Absent != before.Absent+1 {
		t.Fatalf("unexpected deltas %+v -> %+v", before, after)
	}
}

func TestSetStatusRejectsMisuse(t *testing.T) {
	l := seeded(t)
	if err := l.SetStatus("Nowhere", cse1, domain.StatusAbsent); !domain.IsKind(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if err := l.SetStatus("Room 1_Seating", cse2, domain.StatusAbsent); !domain.IsKind(err, domain.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
	if err := l.SetStatus("Room 1_Seating", cse1, "late"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if status, _ := l.Status("Room 1_Seating", cse1); status != domain.StatusPresent {
		t.Fatalf("failed calls must not change state, got %s", status)
	}
}

func TestMoveOrRenameMovesAndCreatesRoom(t *testing.T) {
	l := seeded(t)
	if err := l.MoveOrRename("Room 1_Seating", it1, "Lab A", "21F01A1299", domain.StatusMalpractice); err != nil {
		t.Fatalf("MoveOrRename() error = %v", err)
	}

	if _, err := l.Status("Room 1_Seating", it1); !domain.IsKind(err, domain.ErrCandidateNotFound) {
		t.Fatalf("expected old entry removed, got %v", err)
	}
	status, err := l.Status("Lab A", "21F01A1299")
	if err != nil || status != domain.StatusMalpractice {
		t.Fatalf("Status() = %s, %v", status, err)
	}
	if _, _, ok := l.Locate(it1); ok {
		t.Fatalf("old hall ticket must not be tracked anymore")
	}
	rooms := l.Rooms()
	if rooms[len(rooms)-1] != "Lab A" {
		t.Fatalf("expected Lab A appended to rooms, got %v", rooms)
	}
}

func TestMoveOrRenameStatusOnlyIsNotConflict(t *testing.T) {
	l := seeded(t)
	if err := l.MoveOrRename("Room 1_Seating", cse1, "Room 1_Seating", cse1, domain.StatusAbsent); err != nil {
		t.Fatalf("MoveOrRename() error = %v", err)
	}
	if status, _ := l.Status("Room 1_Seating", cse1); status != domain.StatusAbsent {
		t.Fatalf("expected absent, got %s", status)
	}
}

func TestMoveOrRenameConflictLeavesLedgerUntouched(t *testing.T) {
	l := seeded(t)
	before := l.Snapshot()

	err := l.MoveOrRename("Room 1_Seating", cse1, "Room 2_Seating", cse2, domain.StatusAbsent)
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if diff := cmp.Diff(before, l.Snapshot()); diff != "" {
		t.Fatalf("ledger changed on conflict (-before +after):\n%s", diff)
	}
	if status, err := l.Status("Room 1_Seating", cse1); err != nil || status != domain.StatusPresent {
		t.Fatalf("source entry must remain queryable, got %s, %v", status, err)
	}
}

func TestMoveOrRenameValidatesBeforeMutating(t *testing.T) {
	l := seeded(t)
	before := l.Snapshot()

	cases := []struct {
		name                           string
		oldRoom, oldID, newRoom, newID string
		status                         domain.Status
		kind                           error
	}{
		{"unknown room", "Nowhere", cse1, "Lab", cse1, domain.StatusPresent, domain.ErrRoomNotFound},
		{"unknown candidate", "Room 1_Seating", civ1, "Lab", civ1, domain.StatusPresent, domain.ErrCandidateNotFound},
		{"bad status", "Room 1_Seating", cse1, "Lab", cse1, "gone", domain.ErrInvalidInput},
		{"bad hall ticket", "Room 1_Seating", cse1, "Lab", "short", domain.StatusPresent, domain.ErrInvalidInput},
		{"empty room", "Room 1_Seating", cse1, " ", cse1, domain.StatusPresent, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		err := l.MoveOrRename(tc.oldRoom, tc.oldID, tc.newRoom, tc.newID, tc.status)
		if !domain.IsKind(err, tc.kind) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.kind, err)
		}
	}
	if diff := cmp.Diff(before, l.Snapshot()); diff != "" {
		t.Fatalf("ledger changed on failed edits (-before +after):\n%s", diff)
	}
	if l.HasRoom("Lab") {
		t.Fatalf("failed edits must not create rooms")
	}
}

func TestBulkSetStatus(t *testing.T) {
	l := seeded(t)
	n, err := l.BulkSetStatus("Room 2_Seating", domain.StatusAbsent)
	if err != nil {
		t.Fatalf("BulkSetStatus() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 updates, got %d", n)
	}
	stats := Aggregate(l, []string{"Room 2_Seating"})
	if stats != (domain.Stats{Total: 2, Absent: 2}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if room, _, _ := l.Locate(cse2); room != "Room 2_Seating" {
		t.Fatalf("owner index must survive bulk update, got %q", room)
	}

	if _, err := l.BulkSetStatus("Nowhere", domain.StatusAbsent); !domain.IsKind(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestListByCohortAcrossRooms(t *testing.T) {
	l := seeded(t)
	if _, err := l.Merge("Empty_Seating", nil); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got := l.ListByCohort("05", nil)
	want := []domain.Entry{
		{HallTicket: cse1, Status: domain.StatusPresent, Room: "Room 1_Seating"},
		{HallTicket: cse2, Status: domain.StatusPresent, Room: "Room 2_Seating"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListByCohort() mismatch (-want +got):\n%s", diff)
	}

	filtered := l.ListByCohort("05", []string{"Room 2_Seating", "Empty_Seating", "Missing"})
	if len(filtered) != 1 || filtered[0].HallTicket != cse2 {
		t.Fatalf("unexpected filtered listing %+v", filtered)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	l := seeded(t)
	snap := l.Snapshot()
	snap["Room 1_Seating"][cse1] = domain.StatusMalpractice

	if status, _ := l.Status("Room 1_Seating", cse1); status != domain.StatusPresent {
		t.Fatalf("snapshot mutation leaked into ledger")
	}
}

func TestReset(t *testing.T) {
	l := seeded(t)
	l.Reset()
	if len(l.Rooms()) != 0 || l.Len() != 0 {
		t.Fatalf("expected empty ledger after reset")
	}
	if _, _, ok := l.Locate(cse1); ok {
		t.Fatalf("owner index must be cleared")
	}
}
