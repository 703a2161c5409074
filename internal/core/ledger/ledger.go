// Package ledger holds the authoritative room -> hall ticket -> status store.
//
// A Ledger is not safe for concurrent use; its owner serializes access.
// Every mutating method validates its whole input before touching state, so a
// returned error always means nothing changed.
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/hallticket"
)

type Ledger struct {
	rooms map[string]map[string]domain.Status
	order []string
	// owner maps every hall ticket to the one room holding it.
	owner map[string]string
}

func New() *Ledger {
	return &Ledger{
		rooms: make(map[string]map[string]domain.Status),
		owner: make(map[string]string),
	}
}

// Rooms returns room labels in registration order.
func (l *Ledger) Rooms() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Ledger) HasRoom(room string) bool {
	_, ok := l.rooms[room]
	return ok
}

// Len is the number of tracked candidates across all rooms.
func (l *Ledger) Len() int {
	return len(l.owner)
}

// Locate finds the room currently holding id.
func (l *Ledger) Locate(id string) (string, domain.Status, bool) {
	room, ok := l.owner[id]
	if !ok {
		return "", "", false
	}
	return room, l.rooms[room][id], true
}

func (l *Ledger) Status(room, id string) (domain.Status, error) {
	entries, err := l.room(room)
	if err != nil {
		return "", err
	}
	status, ok := entries[id]
	if !ok {
		return "", candidateNotFound("get status", room, id)
	}
	return status, nil
}

// Merge registers room (if new) and adds ids seeded with the default status.
// Identifiers already in room keep their status, so repeating a merge is a
// no-op. Identifiers held by another room move to this one with their
// current status and are reported.
func (l *Ledger) Merge(room string, ids []string) ([]domain.Relocation, error) {
	if strings.TrimSpace(room) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "merge room", fmt.Errorf("room label is empty"))
	}

	entries := l.ensureRoom(room)
	var relocations []domain.Relocation
	for _, id := range ids {
		prev, owned := l.owner[id]
		if owned && prev == room {
			continue
		}
		status := domain.DefaultStatus
		if owned {
			status = l.rooms[prev][id]
			delete(l.rooms[prev], id)
			relocations = append(relocations, domain.Relocation{HallTicket: id, FromRoom: prev, ToRoom: room, Status: status})
		}
		entries[id] = status
		l.owner[id] = room
	}
	return relocations, nil
}

func (l *Ledger) SetStatus(room, id string, status domain.Status) error {
	if !status.Valid() {
		return invalidStatus("set status", status)
	}
	entries, err := l.room(room)
	if err != nil {
		return err
	}
	if _, ok := entries[id]; !ok {
		return candidateNotFound("set status", room, id)
	}
	entries[id] = status
	return nil
}

// MoveOrRename edits one candidate: it may change room, hall ticket and
// status at once. The target room is created when missing. A hall ticket that
// is already tracked anywhere else is a conflict and nothing changes.
func (l *Ledger) MoveOrRename(oldRoom, oldID, newRoom, newID string, status domain.Status) error {
	const op = "move or rename"
	if !status.Valid() {
		return invalidStatus(op, status)
	}
	if strings.TrimSpace(newRoom) == "" {
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("target room is empty"))
	}
	if !hallticket.Valid(newID, hallticket.PolicyAlphanumeric) {
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("invalid hall ticket %q", newID))
	}
	source, err := l.room(oldRoom)
	if err != nil {
		return err
	}
	if _, ok := source[oldID]; !ok {
		return candidateNotFound(op, oldRoom, oldID)
	}
	if holder, taken := l.owner[newID]; taken && newID != oldID {
		return domain.WrapError(domain.ErrConflict, op, fmt.Errorf("hall ticket %s already in room %q", newID, holder))
	}

	delete(source, oldID)
	delete(l.owner, oldID)
	target := l.ensureRoom(newRoom)
	target[newID] = status
	l.owner[newID] = newRoom
	return nil
}

// BulkSetStatus sets every candidate of room to status and returns how many
// entries were written.
func (l *Ledger) BulkSetStatus(room string, status domain.Status) (int, error) {
	if !status.Valid() {
		return 0, invalidStatus("bulk set status", status)
	}
	entries, err := l.room(room)
	if err != nil {
		return 0, err
	}
	next := make(map[string]domain.Status, len(entries))
	for id := range entries {
		next[id] = status
	}
	l.rooms[room] = next
	return len(next), nil
}

// ListByRoom returns the room's entries in ascending hall ticket order.
func (l *Ledger) ListByRoom(room string) ([]domain.Entry, error) {
	entries, err := l.room(room)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Entry, 0, len(entries))
	for id, status := range entries {
		out = append(out, domain.Entry{HallTicket: id, Status: status, Room: room})
	}
	sortEntries(out)
	return out, nil
}

// ListByCohort returns entries whose cohort code is code. A nil rooms slice
// means every room; labels that are not registered are skipped.
func (l *Ledger) ListByCohort(code string, rooms []string) []domain.Entry {
	out := []domain.Entry{}
	for _, room := range l.selectRooms(rooms) {
		for id, status := range l.rooms[room] {
			if hallticket.CohortCode(id) == code {
				out = append(out, domain.Entry{HallTicket: id, Status: status, Room: room})
			}
		}
	}
	sortEntries(out)
	return out
}

// Entries returns every entry of the selected rooms (nil means all).
func (l *Ledger) Entries(rooms []string) []domain.Entry {
	out := []domain.Entry{}
	for _, room := range l.selectRooms(rooms) {
		for id, status := range l.rooms[room] {
			out = append(out, domain.Entry{HallTicket: id, Status: status, Room: room})
		}
	}
	sortEntries(out)
	return out
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (l *Ledger) Snapshot() domain.Snapshot {
	out := make(domain.Snapshot, len(l.rooms))
	for room, entries := range l.rooms {
		copied := make(map[string]domain.Status, len(entries))
		for id, status := range entries {
			copied[id] = status
		}
		out[room] = copied
	}
	return out
}

func (l *Ledger) Reset() {
	l.rooms = make(map[string]map[string]domain.Status)
	l.owner = make(map[string]string)
	l.order = nil
}

func (l *Ledger) room(room string) (map[string]domain.Status, error) {
	entries, ok := l.rooms[room]
	if !ok {
		return nil, domain.WrapError(domain.ErrRoomNotFound, "lookup room", fmt.Errorf("room %q", room))
	}
	return entries, nil
}

func (l *Ledger) ensureRoom(room string) map[string]domain.Status {
	entries, ok := l.rooms[room]
	if !ok {
		entries = make(map[string]domain.Status)
		l.rooms[room] = entries
		l.order = append(l.order, room)
	}
	return entries
}

func (l *Ledger) selectRooms(rooms []string) []string {
	if rooms == nil {
		return l.order
	}
	out := make([]string, 0, len(rooms))
	seen := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		if _, dup := seen[room]; dup {
			continue
		}
		seen[room] = struct{}{}
		if _, ok := l.rooms[room]; ok {
			out = append(out, room)
		}
	}
	return out
}

func sortEntries(entries []domain.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].HallTicket != entries[j].HallTicket {
			return entries[i].HallTicket < entries[j].HallTicket
		}
		return entries[i].Room < entries[j].Room
	})
}

func candidateNotFound(op, room, id string) error {
	return domain.WrapError(domain.ErrCandidateNotFound, op, fmt.Errorf("hall ticket %s in room %q", id, room))
}

func invalidStatus(op string, status domain.Status) error {
	return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unknown status %q", status))
}
