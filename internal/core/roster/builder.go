package roster

import (
	"fmt"
	"strings"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/hallticket"
)

const (
	DefaultSheetMarker = "Seating"
	DefaultAdhocRoom   = "PDF_Extracted_Room"
)

// Result is one ingestion pass: the rooms to register plus warnings for the
// user. Building never touches a ledger.
type Result struct {
	Rooms    []domain.RoomRoster
	Warnings []string
	ExamInfo *domain.ExamDetails
}

func (r Result) Candidates() int {
	n := 0
	for _, room := range r.Rooms {
		n += len(room.HallTickets)
	}
	return n
}

func (r Result) Labels() []string {
	out := make([]string, 0, len(r.Rooms))
	for _, room := range r.Rooms {
		out = append(out, room.Label)
	}
	return out
}

type Builder struct {
	extractor   *hallticket.Extractor
	sheetMarker string
	adhocRoom   string
}

func NewBuilder(extractor *hallticket.Extractor, sheetMarker, adhocRoom string) *Builder {
	if extractor == nil {
		extractor = hallticket.NewExtractor("", "")
	}
	if sheetMarker == "" {
		sheetMarker = DefaultSheetMarker
	}
	if adhocRoom == "" {
		adhocRoom = DefaultAdhocRoom
	}
	return &Builder{extractor: extractor, sheetMarker: sheetMarker, adhocRoom: adhocRoom}
}

func (b *Builder) AdhocRoom() string {
	return b.adhocRoom
}

// FromSheets builds one room per sheet whose name contains the seating marker.
// A workbook without such sheets is a malformed source.
func (b *Builder) FromSheets(sheets []domain.Sheet) (Result, error) {
	var res Result
	for _, sheet := range sheets {
		if !strings.Contains(sheet.Name, b.sheetMarker) {
			continue
		}
		label := strings.TrimSpace(sheet.Name)
		room := Room(label, b.extractor.FromCells(sheet.Rows))
		res.add(room)
	}
	if len(res.Rooms) == 0 {
		return Result{}, domain.WrapError(
			domain.ErrMalformedSource,
			"build roster from sheets",
			fmt.Errorf("no sheet name contains %q", b.sheetMarker),
		)
	}
	return res, nil
}

// AdhocFromSheets collects identifiers from every sheet into the ad-hoc room.
func (b *Builder) AdhocFromSheets(sheets []domain.Sheet) Result {
	var ids []string
	for _, sheet := range sheets {
		ids = append(ids, b.extractor.FromCells(sheet.Rows)...)
	}
	var res Result
	res.add(Room(b.adhocRoom, ids))
	return res
}

// AdhocFromText scans page text into the single ad-hoc room.
func (b *Builder) AdhocFromText(pages []string) Result {
	text := strings.Join(pages, "\n")
	var res Result
	res.add(Room(b.adhocRoom, b.extractor.FromText(text)))
	res.ExamInfo = ParseExamInfo(text)
	return res
}

// FromTextRooms splits page text on room markers. Identifiers found before
// the first marker land in the ad-hoc room; text without markers behaves
// like AdhocFromText.
func (b *Builder) FromTextRooms(pages []string) Result {
	text := strings.Join(pages, "\n")
	sections := splitRooms(text)
	if len(sections) == 0 {
		return b.AdhocFromText(pages)
	}

	var res Result
	if lead := b.extractor.FromText(text[:sections[0].start]); len(lead) > 0 {
		res.Rooms = append(res.Rooms, Room(b.adhocRoom, lead))
	}

	// The same room marker may repeat across pages; sections are merged by label.
	index := make(map[string]int)
	for _, sec := range sections {
		ids := b.extractor.FromText(text[sec.start:sec.end])
		if i, ok := index[sec.label]; ok {
			merged := append(res.Rooms[i].HallTickets, ids...)
			res.Rooms[i].HallTickets = hallticket.Dedupe(merged)
			continue
		}
		room := Room(sec.label, ids)
		room.Details = parseRoomDetails(text[sec.start:sec.end])
		index[sec.label] = len(res.Rooms)
		res.Rooms = append(res.Rooms, room)
	}

	for _, room := range res.Rooms {
		res.Warnings = append(res.Warnings, roomWarnings(room)...)
	}
	res.ExamInfo = ParseExamInfo(text)
	return res
}

// Room deduplicates ids into a roster for label.
func Room(label string, ids []string) domain.RoomRoster {
	return domain.RoomRoster{Label: label, HallTickets: hallticket.Dedupe(ids)}
}

func (r *Result) add(room domain.RoomRoster) {
	r.Rooms = append(r.Rooms, room)
	r.Warnings = append(r.Warnings, roomWarnings(room)...)
}

func roomWarnings(room domain.RoomRoster) []string {
	var out []string
	if len(room.HallTickets) == 0 {
		out = append(out, fmt.Sprintf("room %q: no hall tickets found", room.Label))
	}
	if d := room.Details; d != nil && d.DeclaredTotal > 0 && d.DeclaredTotal != len(room.HallTickets) {
		out = append(out, fmt.Sprintf("room %q: declares %d students, extracted %d", room.Label, d.DeclaredTotal, len(room.HallTickets)))
	}
	return out
}
