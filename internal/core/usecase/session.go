package usecase

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/kirillkom/exam-attendance/internal/core/cohort"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/hallticket"
	"github.com/kirillkom/exam-attendance/internal/core/ledger"
	"github.com/kirillkom/exam-attendance/internal/core/roster"
)

var errEmptyRoomLabel = errors.New("room label is empty")

// Session owns the attendance ledger. Every read and write goes through its
// mutex, and every mutation returns statistics recomputed afterwards.
type Session struct {
	mu         sync.Mutex
	ledger     *ledger.Ledger
	classifier *cohort.Classifier
	exam       domain.ExamDetails
	logger     *slog.Logger
}

func NewSession(classifier *cohort.Classifier, logger *slog.Logger) *Session {
	if classifier == nil {
		classifier = cohort.NewClassifier(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ledger:     ledger.New(),
		classifier: classifier,
		logger:     logger,
	}
}

func (s *Session) Classifier() *cohort.Classifier {
	return s.classifier
}

// Apply merges a built roster into the ledger. Exam info parsed from the
// source only fills fields the user has not set.
func (s *Session) Apply(res roster.Result) ([]domain.Relocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(res)
}

func (s *Session) applyLocked(res roster.Result) ([]domain.Relocation, error) {
	var relocations []domain.Relocation
	for _, room := range res.Rooms {
		if room.Label == "" {
			return nil, domain.WrapError(domain.ErrMalformedSource, "apply roster", errEmptyRoomLabel)
		}
	}
	for _, room := range res.Rooms {
		moved, err := s.ledger.Merge(room.Label, room.HallTickets)
		if err != nil {
			return relocations, err
		}
		for _, r := range moved {
			s.logger.Warn("candidate relocated", "hall_ticket", r.HallTicket, "from_room", r.FromRoom, "to_room", r.ToRoom, "status", r.Status)
		}
		relocations = append(relocations, moved...)
	}
	if res.ExamInfo != nil {
		s.exam = s.exam.Merge(*res.ExamInfo)
	}
	return relocations, nil
}

func (s *Session) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Rooms()
}

// RoomView lists a room sorted by hall ticket. An empty filter keeps every
// entry; Stats always cover the whole room.
func (s *Session) RoomView(room string, filter domain.Status) (domain.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.ledger.ListByRoom(room)
	if err != nil {
		return domain.RoomView{}, err
	}
	return domain.RoomView{
		Room:    room,
		Entries: ledger.FilterStatus(entries, filter),
		Stats:   ledger.Count(entries),
	}, nil
}

func (s *Session) SetStatus(room, hallTicket string, status domain.Status) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.SetStatus(room, hallTicket, status); err != nil {
		return domain.Stats{}, err
	}
	return ledger.AggregateAll(s.ledger), nil
}

// BulkSetStatus returns the updated totals and how many entries were written.
func (s *Session) BulkSetStatus(room string, status domain.Status) (domain.Stats, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.ledger.BulkSetStatus(room, status)
	if err != nil {
		return domain.Stats{}, 0, err
	}
	s.logger.Info("bulk status applied", "room", room, "status", status, "candidates", n)
	return ledger.AggregateAll(s.ledger), n, nil
}

func (s *Session) Edit(edit domain.CandidateEdit) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newRoom := edit.NewRoom
	if newRoom == "" {
		newRoom = edit.OldRoom
	}
	newID := edit.NewHallTicket
	if newID == "" {
		newID = edit.OldHallTicket
	}
	if err := s.ledger.MoveOrRename(edit.OldRoom, edit.OldHallTicket, newRoom, newID, edit.Status); err != nil {
		return domain.Stats{}, err
	}
	return ledger.AggregateAll(s.ledger), nil
}

// Stats aggregates over rooms; nil means every room, an empty non-nil slice
// means none.
func (s *Session) Stats(rooms []string) domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rooms == nil {
		return ledger.AggregateAll(s.ledger)
	}
	return ledger.Aggregate(s.ledger, rooms)
}

// CohortGroups groups candidates of rooms by cohort code, codes ascending.
func (s *Session) CohortGroups(rooms []string, filter domain.Status) []domain.CohortGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cohortGroupsLocked(rooms, filter)
}

func (s *Session) cohortGroupsLocked(rooms []string, filter domain.Status) []domain.CohortGroup {
	codes, groups := ledger.GroupByCohort(s.ledger, rooms)
	out := make([]domain.CohortGroup, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.group(code, groups[code], filter))
	}
	return out
}

func (s *Session) CohortView(code string, rooms []string, filter domain.Status) domain.CohortGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group(code, s.ledger.ListByCohort(code, rooms), filter)
}

func (s *Session) group(code string, entries []domain.Entry, filter domain.Status) domain.CohortGroup {
	students := make([]domain.CohortStudent, 0, len(entries))
	for _, e := range ledger.FilterStatus(entries, filter) {
		fields, _ := hallticket.Fields(e.HallTicket)
		students = append(students, domain.CohortStudent{Entry: e, Fields: fields})
	}
	return domain.CohortGroup{
		Cohort:   s.classifier.Classify(code),
		Students: students,
		Stats:    ledger.Count(entries),
	}
}

func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

func (s *Session) ExamDetails() domain.ExamDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exam
}

func (s *Session) SetExamDetails(details domain.ExamDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exam = details
}

// Reset clears the ledger and exam details.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Reset()
	s.exam = domain.ExamDetails{}
}

// view is one consistent read of everything a report needs.
type view struct {
	rooms    []string
	snapshot domain.Snapshot
	stats    domain.Stats
	cohorts  []domain.CohortGroup
	exam     domain.ExamDetails
}

// reportView restricts cohorts and statistics to the selected branch unless
// it is empty or the unknown cohort.
func (s *Session) reportView() view {
	s.mu.Lock()
	defer s.mu.Unlock()

	branch := s.exam.Branch
	v := view{
		rooms:    s.ledger.Rooms(),
		snapshot: s.ledger.Snapshot(),
		exam:     s.exam,
	}
	if branch != "" && branch != hallticket.UnknownCohort {
		group := s.group(branch, s.ledger.ListByCohort(branch, nil), "")
		v.cohorts = []domain.CohortGroup{group}
		v.stats = group.Stats
		return v
	}
	v.cohorts = s.cohortGroupsLocked(nil, "")
	v.stats = ledger.AggregateAll(s.ledger)
	return v
}
