package domain

import "time"

type SourceKind string

const (
	SourceSpreadsheet SourceKind = "spreadsheet"
	SourcePDF         SourceKind = "pdf"
)

// IngestionMode selects how extracted identifiers are assigned to rooms.
type IngestionMode string

const (
	// ModeSeating registers one room per seating sheet.
	ModeSeating IngestionMode = "seating"
	// ModeAdhoc merges every identifier into the single ad-hoc room.
	ModeAdhoc IngestionMode = "adhoc"
	// ModeRoomMarkers splits PDF text on "ROOM: Room N" markers.
	ModeRoomMarkers IngestionMode = "rooms"
)

type IngestionStatus string

const (
	IngestionPending   IngestionStatus = "pending"
	IngestionRunning   IngestionStatus = "running"
	IngestionCompleted IngestionStatus = "completed"
	IngestionFailed    IngestionStatus = "failed"
	IngestionDiscarded IngestionStatus = "discarded"
)

// Sheet is one named cell grid yielded by a spreadsheet reader.
type Sheet struct {
	Name string
	Rows [][]string
}

// RoomDetails holds what a PDF seating plan declares about a room.
type RoomDetails struct {
	DeclaredTotal int `json:"declared_total,omitempty"`
	Rows          int `json:"rows,omitempty"`
	Columns       int `json:"columns,omitempty"`
}

// RoomRoster is the builder output for one room: unique identifiers in
// first-encounter order.
type RoomRoster struct {
	Label       string       `json:"label"`
	HallTickets []string     `json:"hall_tickets"`
	Details     *RoomDetails `json:"details,omitempty"`
}

func (r RoomRoster) Seed() map[string]Status {
	out := make(map[string]Status, len(r.HallTickets))
	for _, id := range r.HallTickets {
		out[id] = DefaultStatus
	}
	return out
}

// Relocation records a candidate that a later room took over from an
// earlier one.
type Relocation struct {
	HallTicket string `json:"hall_ticket"`
	FromRoom   string `json:"from_room"`
	ToRoom     string `json:"to_room"`
	Status     Status `json:"status"`
}

type Ingestion struct {
	ID          string          `json:"id"`
	Sequence    uint64          `json:"sequence"`
	Source      SourceKind      `json:"source"`
	Mode        IngestionMode   `json:"mode"`
	Filename    string          `json:"filename"`
	StoragePath string          `json:"storage_path"`
	Status      IngestionStatus `json:"status"`
	Rooms       []string        `json:"rooms,omitempty"`
	Candidates  int             `json:"candidates"`
	Warnings    []string        `json:"warnings,omitempty"`
	Relocations []Relocation    `json:"relocations,omitempty"`
	ExamInfo    *ExamDetails    `json:"exam_info,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
