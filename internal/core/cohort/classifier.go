package cohort

import (
	"fmt"
	"sort"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

// FallbackColor is used for every code missing from the table.
var FallbackColor = domain.RGB{R: 128, G: 128, B: 128}

// Definition is one row of the cohort table. Name and color are looked up
// independently so either may be overridden on its own.
type Definition struct {
	Name  string      `yaml:"name"`
	Color *domain.RGB `yaml:"color,omitempty"`
}

type Table map[string]Definition

// DefaultTable returns the branch codes used by the college.
func DefaultTable() Table {
	rgb := func(r, g, b uint8) *domain.RGB { return &domain.RGB{R: r, G: g, B: b} }
	return Table{
		"01": {Name: "Civil Engineering", Color: rgb(100, 149, 237)},
		"02": {Name: "Electrical & Electronics Engineering", Color: rgb(255, 165, 0)},
		"03": {Name: "Mechanical Engineering", Color: rgb(0, 128, 128)},
		"04": {Name: "Electronics & Communication Engineering", Color: rgb(106, 90, 205)},
		"05": {Name: "Computer Science & Engineering", Color: rgb(60, 179, 113)},
		"12": {Name: "Information Technology", Color: rgb(220, 20, 60)},
		"42": {Name: "Artificial Intelligence", Color: rgb(75, 0, 130)},
		"66": {Name: "Data Science", Color: rgb(139, 69, 19)},
	}
}

type Classifier struct {
	table Table
}

// NewClassifier copies table; a nil table means DefaultTable.
func NewClassifier(table Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	copied := make(Table, len(table))
	for code, def := range table {
		copied[code] = def
	}
	return &Classifier{table: copied}
}

func (c *Classifier) Name(code string) string {
	if def, ok := c.table[code]; ok && def.Name != "" {
		return def.Name
	}
	return fmt.Sprintf("Cohort %s", code)
}

func (c *Classifier) Color(code string) domain.RGB {
	if def, ok := c.table[code]; ok && def.Color != nil {
		return *def.Color
	}
	return FallbackColor
}

func (c *Classifier) Classify(code string) domain.Cohort {
	return domain.Cohort{
		Code:  code,
		Name:  c.Name(code),
		Color: c.Color(code),
	}
}

func (c *Classifier) Known(code string) bool {
	_, ok := c.table[code]
	return ok
}

// Codes lists the table's codes in ascending order.
func (c *Classifier) Codes() []string {
	codes := make([]string, 0, len(c.table))
	for code := range c.table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
