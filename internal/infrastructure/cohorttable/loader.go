// Package cohorttable loads cohort table overrides from YAML:
//
//	"05":
//	  name: Computer Science & Engineering
//	  color: {r: 60, g: 179, b: 113}
//	"99":
//	  name: Honors
package cohorttable

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/exam-attendance/internal/core/cohort"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

// Load merges the file at path over the default table. An empty path yields
// the defaults.
func Load(path string) (cohort.Table, error) {
	if path == "" {
		return cohort.DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cohort table: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// Parse merges a YAML document over the default table. Entries override name
// and color independently.
func Parse(r io.Reader) (cohort.Table, error) {
	var overrides map[string]cohort.Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&overrides); err != nil && err != io.EOF {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse cohort table", err)
	}

	table := cohort.DefaultTable()
	for code, def := range overrides {
		if len(code) != 2 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse cohort table", fmt.Errorf("cohort code %q must be 2 characters", code))
		}
		merged := table[code]
		if def.Name != "" {
			merged.Name = def.Name
		}
		if def.Color != nil {
			merged.Color = def.Color
		}
		table[code] = merged
	}
	return table, nil
}
