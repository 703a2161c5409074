package roster

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

var (
	roomMarker    = regexp.MustCompile(`ROOM:\s*Room\s+(\d+)`)
	totalPattern  = regexp.MustCompile(`Total Students:\s*(\d+)`)
	configPattern = regexp.MustCompile(`Room Configuration:\s*(\d+)\s*Rows\s*\S+\s*(\d+)\s*Columns`)

	titlePattern  = regexp.MustCompile(`B\.Tech[^\n]*?Exams`)
	datePattern   = regexp.MustCompile(`Generated on:\s*([^,\n]+)`)
	centerPattern = regexp.MustCompile(`EXAM CENTRE:\s*([^\n]+)`)
)

type section struct {
	label      string
	start, end int
}

func splitRooms(text string) []section {
	matches := roomMarker.FindAllStringSubmatchIndex(text, -1)
	out := make([]section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out = append(out, section{
			label: "Room " + text[m[2]:m[3]],
			start: m[0],
			end:   end,
		})
	}
	return out
}

func parseRoomDetails(text string) *domain.RoomDetails {
	var d domain.RoomDetails
	found := false
	if m := totalPattern.FindStringSubmatch(text); m != nil {
		d.DeclaredTotal, _ = strconv.Atoi(m[1])
		found = true
	}
	if m := configPattern.FindStringSubmatch(text); m != nil {
		d.Rows, _ = strconv.Atoi(m[1])
		d.Columns, _ = strconv.Atoi(m[2])
		found = true
	}
	if !found {
		return nil
	}
	return &d
}

// ParseExamInfo picks the exam title, generation date and exam centre out of
// seating-plan text. It returns nil when none of them is present.
func ParseExamInfo(text string) *domain.ExamDetails {
	var info domain.ExamDetails
	if m := titlePattern.FindString(text); m != "" {
		info.ExamName = strings.TrimSpace(m)
	}
	if m := datePattern.FindStringSubmatch(text); m != nil {
		info.ExamDate = strings.TrimSpace(m[1])
	}
	if m := centerPattern.FindStringSubmatch(text); m != nil {
		info.Center = strings.TrimSpace(m[1])
	}
	if info == (domain.ExamDetails{}) {
		return nil
	}
	return &info
}
