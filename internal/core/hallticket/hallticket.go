// Package hallticket is the single source of truth for what a hall ticket
// number looks like and how it is found in spreadsheet cells and PDF text.
package hallticket

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

// Length is the fixed size of a hall ticket number.
const Length = 10

// UnknownCohort is reported for tokens too short to carry a cohort code.
const UnknownCohort = "00"

type Policy string

const (
	// PolicyAlphanumeric accepts any 10 ASCII letters or digits.
	PolicyAlphanumeric Policy = "alphanumeric"
	// PolicyDigitPrefixed additionally requires the first 3 characters to be digits.
	PolicyDigitPrefixed Policy = "digit-prefixed"
)

func ParsePolicy(raw string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(raw))); p {
	case PolicyAlphanumeric, PolicyDigitPrefixed:
		return p, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse policy", fmt.Errorf("unknown match policy %q", raw))
	}
}

var scanPattern = regexp.MustCompile(`[A-Za-z0-9]{10}`)

// Valid reports whether token is exactly one hall ticket under policy.
func Valid(token string, policy Policy) bool {
	if len(token) != Length {
		return false
	}
	for i := 0; i < Length; i++ {
		c := token[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
			if policy == PolicyDigitPrefixed && i < 3 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type Extractor struct {
	cellPolicy Policy
	textPolicy Policy
}

func NewExtractor(cellPolicy, textPolicy Policy) *Extractor {
	if cellPolicy == "" {
		cellPolicy = PolicyAlphanumeric
	}
	if textPolicy == "" {
		textPolicy = PolicyDigitPrefixed
	}
	return &Extractor{cellPolicy: cellPolicy, textPolicy: textPolicy}
}

// FromCells tests every trimmed, non-empty cell as a whole-string match.
// Duplicates are kept in encounter order.
func (e *Extractor) FromCells(rows [][]string) []string {
	out := []string{}
	for _, row := range rows {
		for _, cell := range row {
			token := strings.TrimSpace(cell)
			if token == "" {
				continue
			}
			if Valid(token, e.cellPolicy) {
				out = append(out, token)
			}
		}
	}
	return out
}

// FromText scans text for non-overlapping 10-character alphanumeric runs and
// keeps the ones the text policy accepts.
func (e *Extractor) FromText(text string) []string {
	out := []string{}
	for _, match := range scanPattern.FindAllString(text, -1) {
		if Valid(match, e.textPolicy) {
			out = append(out, match)
		}
	}
	return out
}

// CohortCode returns the two characters at offset 6, or UnknownCohort when
// the token is too short.
func CohortCode(id string) string {
	if len(id) < 8 {
		return UnknownCohort
	}
	return id[6:8]
}

// Fields splits a hall ticket into its fixed-offset parts.
func Fields(id string) (domain.HallTicketFields, error) {
	if len(id) != Length {
		return domain.HallTicketFields{}, domain.WrapError(
			domain.ErrInvalidInput,
			"split hall ticket",
			fmt.Errorf("hall ticket %q must be %d characters", id, Length),
		)
	}
	return domain.HallTicketFields{
		RegYear:       id[0:2],
		CollegeCode:   id[2:6],
		BranchCode:    id[6:8],
		StudentNumber: id[8:10],
	}, nil
}

// Dedupe keeps the first occurrence of every identifier.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
