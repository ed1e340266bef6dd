package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"talentscout/internal/pipeline"
)

var csvHeader = []string{
	"Name", "Profile URL", "Match", "Confidence", "Target Company", "Left Date", "Reasoning", "Found On Page",
}

// WriteCSV serializes the matching candidates as CSV rows, one per
// candidate, in set order.
func WriteCSV(w io.Writer, set *pipeline.CandidateSet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, candidate := range set.Candidates {
		decision := candidate.Decision
		row := []string{
			candidate.Profile.Name,
			candidate.Profile.URL,
			yesNo(decision.Match),
			decision.Confidence,
			decision.TargetCompany,
			decision.LeftDate,
			decision.Reasoning,
			strconv.Itoa(candidate.Profile.Page),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ToFile writes the CSV into dir under a timestamped name derived from the
// target company, returning the full path.
func ToFile(dir string, set *pipeline.CandidateSet) (string, error) {
	path := filepath.Join(dir, Filename(set))

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteCSV(file, set); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}

// Filename builds the export filename: talentscout_<company>_<timestamp>.csv.
func Filename(set *pipeline.CandidateSet) string {
	slug := "results"
	if set.Criteria != nil && set.Criteria.Company != "" {
		slug = strings.ToLower(strings.ReplaceAll(set.Criteria.Company, " ", "_"))
	}
	return fmt.Sprintf("talentscout_%s_%s.csv", slug, time.Now().Format("20060102_150405"))
}

// DumpToTmpFile writes the whole set, including counts and criteria, as
// indented JSON to a temp file and returns its name.
func DumpToTmpFile(set *pipeline.CandidateSet) (string, error) {
	file, err := os.CreateTemp("", "talentscout_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
