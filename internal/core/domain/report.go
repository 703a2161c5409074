package domain

import "time"

// CohortStudent is a cohort listing row with the hall ticket breakdown.
type CohortStudent struct {
	Entry
	Fields HallTicketFields `json:"fields"`
}

type CohortGroup struct {
	Cohort   Cohort          `json:"cohort"`
	Students []CohortStudent `json:"students"`
	Stats    Stats           `json:"stats"`
}

type RoomView struct {
	Room    string  `json:"room"`
	Entries []Entry `json:"entries"`
	Stats   Stats   `json:"stats"`
}

// DFormRequest is the report assembler input: one consistent snapshot of the
// ledger with derived statistics and cohort grouping.
type DFormRequest struct {
	ID          string        `json:"id"`
	College     string        `json:"college"`
	Exam        ExamDetails   `json:"exam"`
	Rooms       []string      `json:"rooms"`
	Snapshot    Snapshot      `json:"snapshot"`
	Stats       Stats         `json:"stats"`
	Cohorts     []CohortGroup `json:"cohorts"`
	GeneratedAt time.Time     `json:"generated_at"`
}
