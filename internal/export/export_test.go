package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talentscout/internal/ai"
	"talentscout/internal/criteria"
	"talentscout/internal/linkedin"
	"talentscout/internal/pipeline"
)

func sampleSet() *pipeline.CandidateSet {
	return &pipeline.CandidateSet{
		Query:    "former Acme engineers",
		Criteria: &criteria.Criteria{Company: "Acme Corp"},
		Candidates: []*pipeline.Candidate{
			{
				Profile: &linkedin.Profile{
					Name: "Jane Doe",
					URL:  "https://www.linkedin.com/in/jane-doe",
					Page: 1,
				},
				Decision: &ai.Decision{
					Match:         true,
					Confidence:    "high",
					TargetCompany: "Acme Corp",
					LeftDate:      "2024-03",
					Reasoning:     "Left Acme in March 2024, reasoning includes a comma",
				},
			},
			{
				Profile: &linkedin.Profile{
					Name: "Bob Smith",
					URL:  "https://www.linkedin.com/in/bob-smith",
					Page: 2,
				},
				Decision: &ai.Decision{
					Match:      true,
					Confidence: "medium",
					Reasoning:  "Tenure dates are approximate",
				},
			},
		},
		Collected: 5,
		Evaluated: 4,
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	if err := WriteCSV(&buf, sampleSet()); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %s", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][7] != "Found On Page" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	jane := rows[1]
	if jane[0] != "Jane Doe" || jane[2] != "Yes" || jane[5] != "2024-03" || jane[7] != "1" {
		t.Fatalf("unexpected row: %v", jane)
	}
	if jane[6] != "Left Acme in March 2024, reasoning includes a comma" {
		t.Fatalf("expected the reasoning to survive quoting: %q", jane[6])
	}
}

func TestToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, err := ToFile(dir, sampleSet())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "talentscout_acme_corp_") || !strings.HasSuffix(name, ".csv") {
		t.Fatalf("unexpected filename: %q", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %s", err)
	}
	if !strings.Contains(string(data), "Jane Doe") {
		t.Fatal("expected candidate rows in the export")
	}
}

func TestFilenameFallsBackWithoutCompany(t *testing.T) {
	t.Parallel()

	set := &pipeline.CandidateSet{}
	if name := Filename(set); !strings.HasPrefix(name, "talentscout_results_") {
		t.Fatalf("unexpected fallback filename: %q", name)
	}
}

func TestDumpToTmpFile(t *testing.T) {
	t.Parallel()

	name, err := DumpToTmpFile(sampleSet())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer os.Remove(name)

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("reading dump: %s", err)
	}

	content := string(data)
	for _, want := range []string{"former Acme engineers", "Jane Doe", "Collected"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in the dump:\n%s", want, content)
		}
	}
}
