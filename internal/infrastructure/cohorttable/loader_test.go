package cohorttable

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/exam-attendance/internal/core/cohort"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

func TestParseOverridesNameAndColorIndependently(t *testing.T) {
	table, err := Parse(strings.NewReader(`
"05":
  name: CSE
"12":
  color: {r: 1, g: 2, b: 3}
"99":
  name: Honors
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	c := cohort.NewClassifier(table)

	if c.Name("05") != "CSE" || c.Color("05") != (domain.RGB{R: 60, G: 179, B: 113}) {
		t.Fatalf("unexpected 05 cohort %+v", c.Classify("05"))
	}
	if c.Name("12") != "Information Technology" || c.Color("12") != (domain.RGB{R: 1, G: 2, B: 3}) {
		t.Fatalf("unexpected 12 cohort %+v", c.Classify("12"))
	}
	if c.Name("99") != "Honors" || c.Color("99") != cohort.FallbackColor {
		t.Fatalf("unexpected 99 cohort %+v", c.Classify("99"))
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, doc := range []string{`"5": {name: x}`, `"05": {nmae: x}`, `- not a map`} {
		if _, err := Parse(strings.NewReader(doc)); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("Parse(%q) expected ErrInvalidInput, got %v", doc, err)
		}
	}
}

func TestLoad(t *testing.T) {
	table, err := Load("")
	if err != nil || len(table) != len(cohort.DefaultTable()) {
		t.Fatalf("Load(\"\") = %d entries, %v", len(table), err)
	}

	path := filepath.Join(t.TempDir(), "cohorts.yaml")
	if err := os.WriteFile(path, []byte(`"42": {name: AI}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	table, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table["42"].Name != "AI" {
		t.Fatalf("expected override, got %+v", table["42"])
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
