package ledger

import (
	"sort"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/hallticket"
)

// Aggregate counts statuses over exactly the given rooms. An empty subset
// yields zero statistics; unknown labels contribute nothing.
func Aggregate(l *Ledger, rooms []string) domain.Stats {
	var stats domain.Stats
	if len(rooms) == 0 {
		return stats
	}
	for _, room := range l.selectRooms(rooms) {
		for _, status := range l.rooms[room] {
			stats.Add(status)
		}
	}
	return stats
}

// AggregateAll counts statuses over every registered room.
func AggregateAll(l *Ledger) domain.Stats {
	return Aggregate(l, l.order)
}

// AggregateCohort counts statuses of one cohort within rooms (nil means all).
func AggregateCohort(l *Ledger, code string, rooms []string) domain.Stats {
	return Count(l.ListByCohort(code, rooms))
}

func Count(entries []domain.Entry) domain.Stats {
	var stats domain.Stats
	for _, e := range entries {
		stats.Add(e.Status)
	}
	return stats
}

// GroupByCohort buckets the selected rooms' entries by cohort code. Codes are
// returned ascending and each bucket is sorted by hall ticket.
func GroupByCohort(l *Ledger, rooms []string) ([]string, map[string][]domain.Entry) {
	groups := make(map[string][]domain.Entry)
	for _, e := range l.Entries(rooms) {
		code := hallticket.CohortCode(e.HallTicket)
		groups[code] = append(groups[code], e)
	}
	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, groups
}

// FilterStatus keeps entries with the given status; an empty status keeps all.
func FilterStatus(entries []domain.Entry, status domain.Status) []domain.Entry {
	if status == "" {
		return entries
	}
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}
