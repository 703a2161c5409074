package domain

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPresent     Status = "present"
	StatusAbsent      Status = "absent"
	StatusMalpractice Status = "malpractice"
)

// DefaultStatus is assigned to every candidate when a roster is ingested.
const DefaultStatus = StatusPresent

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusMalpractice:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", WrapError(ErrInvalidInput, "parse status", fmt.Errorf("unknown status %q", raw))
	}
	return s, nil
}

// Entry is one candidate row as seen by room and cohort views.
type Entry struct {
	HallTicket string `json:"hall_ticket"`
	Status     Status `json:"status"`
	Room       string `json:"room,omitempty"`
}

// HallTicketFields is the fixed-offset breakdown of a hall ticket number.
type HallTicketFields struct {
	RegYear       string `json:"reg_year"`
	CollegeCode   string `json:"college_code"`
	BranchCode    string `json:"branch_code"`
	StudentNumber string `json:"student_number"`
}

type Stats struct {
	Total       int `json:"total"`
	Present     int `json:"present"`
	Absent      int `json:"absent"`
	Malpractice int `json:"malpractice"`
}

func (s *Stats) Add(status Status) {
	s.Total++
	switch status {
	case StatusPresent:
		s.Present++
	case StatusAbsent:
		s.Absent++
	case StatusMalpractice:
		s.Malpractice++
	}
}

// Percent returns n as a share of Total, 0 when Total is 0.
func (s Stats) Percent(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(s.Total)
}

type Percentages struct {
	Present     float64 `json:"present"`
	Absent      float64 `json:"absent"`
	Malpractice float64 `json:"malpractice"`
}

func (s Stats) Percentages() Percentages {
	return Percentages{
		Present:     s.Percent(s.Present),
		Absent:      s.Percent(s.Absent),
		Malpractice: s.Percent(s.Malpractice),
	}
}

type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Tint mixes the color with 80% white.
func (c RGB) Tint() RGB {
	mix := func(v uint8) uint8 {
		return uint8(float64(v)*0.2 + 255*0.8 + 0.5)
	}
	return RGB{R: mix(c.R), G: mix(c.G), B: mix(c.B)}
}

type Cohort struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Color RGB    `json:"color"`
}

// ExamDetails is the exam metadata printed on D-Forms.
type ExamDetails struct {
	ExamName    string `json:"exam_name"`
	Regulation  string `json:"regulation"`
	ExamDate    string `json:"exam_date"`
	SubjectName string `json:"subject_name"`
	SubjectCode string `json:"subject_code"`
	Branch      string `json:"branch"`
	Center      string `json:"center,omitempty"`
}

// Merge fills empty fields of d from other.
func (d ExamDetails) Merge(other ExamDetails) ExamDetails {
	pick := func(a, b string) string {
		if strings.TrimSpace(a) != "" {
			return a
		}
		return b
	}
	return ExamDetails{
		ExamName:    pick(d.ExamName, other.ExamName),
		Regulation:  pick(d.Regulation, other.Regulation),
		ExamDate:    pick(d.ExamDate, other.ExamDate),
		SubjectName: pick(d.SubjectName, other.SubjectName),
		SubjectCode: pick(d.SubjectCode, other.SubjectCode),
		Branch:      pick(d.Branch, other.Branch),
		Center:      pick(d.Center, other.Center),
	}
}

// Snapshot is a detached copy of the ledger: room -> hall ticket -> status.
type Snapshot map[string]map[string]Status

// CandidateEdit moves and/or renames one candidate and sets its status.
type CandidateEdit struct {
	OldRoom       string `json:"old_room"`
	OldHallTicket string `json:"old_hall_ticket"`
	NewRoom       string `json:"new_room"`
	NewHallTicket string `json:"new_hall_ticket"`
	Status        Status `json:"status"`
}
