package criteria

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DateLayout is the canonical wire format for date bounds.
const DateLayout = "2006-01-02"

var (
	// ErrAmbiguousQuery is returned when a query carries neither a company
	// nor a temporal signal. It is surfaced to the caller before any
	// external paging happens. No retry.
	ErrAmbiguousQuery = errors.New("no company or time signal found in query")

	// ErrContradictoryBounds is returned when the temporal bounds can never
	// both hold.
	ErrContradictoryBounds = errors.New("temporal bounds are contradictory")
)

// Criteria is the structured form of a recruiting query. All fields except
// Company are optional; an absent field means "no constraint".
type Criteria struct {
	Company         string
	TeamOrProduct   string
	RoleKeywords    []string
	StillEmployedOK bool
	LeftAfter       *time.Time
	LeftBefore      *time.Time
	MinMonthsAgo    int
	MaxMonthsAgo    int
	OriginalQuery   string
}

// Raw mirrors the loosely typed record the classifier returns. Dates stay
// strings here because the model occasionally answers with a bare year or a
// year-month instead of a full date.
type Raw struct {
	Company         string   `mapstructure:"company"`
	TeamOrProduct   string   `mapstructure:"team_or_product"`
	RoleKeywords    []string `mapstructure:"role_keywords"`
	StillEmployedOK bool     `mapstructure:"still_employed_ok"`
	LeftAfter       string   `mapstructure:"left_after"`
	LeftBefore      string   `mapstructure:"left_before"`
	MinMonthsAgo    int      `mapstructure:"min_months_ago"`
	MaxMonthsAgo    int      `mapstructure:"max_months_ago"`
}

// FromResponse decodes a classifier response map into a validated Criteria.
// Missing or null fields map to "no constraint" rather than failure.
func FromResponse(data map[string]any, originalQuery string) (*Criteria, error) {
	var raw Raw
	cfg := &mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode criteria response: %w", err)
	}

	return raw.Normalize(originalQuery)
}

// Normalize converts the raw record into a Criteria, parsing date bounds and
// enforcing the record invariants.
func (r Raw) Normalize(originalQuery string) (*Criteria, error) {
	c := &Criteria{
		Company:         strings.TrimSpace(r.Company),
		TeamOrProduct:   strings.TrimSpace(r.TeamOrProduct),
		StillEmployedOK: r.StillEmployedOK,
		MinMonthsAgo:    r.MinMonthsAgo,
		MaxMonthsAgo:    r.MaxMonthsAgo,
		OriginalQuery:   strings.TrimSpace(originalQuery),
	}

	for _, kw := range r.RoleKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			c.RoleKeywords = append(c.RoleKeywords, kw)
		}
	}

	var err error
	if c.LeftAfter, err = parseDateBound(r.LeftAfter, false); err != nil {
		return nil, fmt.Errorf("left_after: %w", err)
	}
	if c.LeftBefore, err = parseDateBound(r.LeftBefore, true); err != nil {
		return nil, fmt.Errorf("left_before: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate enforces the Criteria invariants: at least a company or a
// temporal bound must be present, and bounds must not contradict each other.
func (c *Criteria) Validate() error {
	if c.Company == "" && c.TeamOrProduct == "" && !c.hasTemporalBound() {
		return ErrAmbiguousQuery
	}

	if c.LeftAfter != nil && c.LeftBefore != nil && c.LeftAfter.After(*c.LeftBefore) {
		return fmt.Errorf("%w: left after %s > left before %s", ErrContradictoryBounds,
			c.LeftAfter.Format(DateLayout), c.LeftBefore.Format(DateLayout))
	}

	if c.MinMonthsAgo > 0 && c.MaxMonthsAgo > 0 && c.MinMonthsAgo > c.MaxMonthsAgo {
		return fmt.Errorf("%w: min months ago %d > max months ago %d", ErrContradictoryBounds,
			c.MinMonthsAgo, c.MaxMonthsAgo)
	}

	return nil
}

func (c *Criteria) hasTemporalBound() bool {
	return c.LeftAfter != nil || c.LeftBefore != nil || c.MinMonthsAgo > 0 || c.MaxMonthsAgo > 0
}

// Describe renders the criteria for user confirmation.
func (c *Criteria) Describe() string {
	parts := []string{fmt.Sprintf("Company: %s", c.Company)}

	if c.TeamOrProduct != "" {
		parts = append(parts, fmt.Sprintf("Team/product: %s", c.TeamOrProduct))
	}

	if len(c.RoleKeywords) > 0 {
		parts = append(parts, fmt.Sprintf("Role keywords: %s", strings.Join(c.RoleKeywords, ", ")))
	}

	if c.StillEmployedOK {
		parts = append(parts, "Including: current employees")
	} else {
		parts = append(parts, "Including: former employees only")
	}

	if c.LeftAfter != nil {
		parts = append(parts, fmt.Sprintf("Left after: %s", c.LeftAfter.Format(DateLayout)))
	}

	if c.LeftBefore != nil {
		parts = append(parts, fmt.Sprintf("Left before: %s", c.LeftBefore.Format(DateLayout)))
	}

	if c.MinMonthsAgo > 0 {
		parts = append(parts, fmt.Sprintf("Left more than: %d months ago", c.MinMonthsAgo))
	}

	if c.MaxMonthsAgo > 0 {
		parts = append(parts, fmt.Sprintf("Left within: last %d months", c.MaxMonthsAgo))
	}

	parts = append(parts, fmt.Sprintf("Search: %q", c.SearchQuery()))

	return strings.Join(parts, "\n  ")
}

// parseDateBound accepts full dates, year-months and bare years. A bare year
// or year-month used as an upper bound snaps to the end of the period so
// "left between 2023 and 2025" covers all of 2025.
func parseDateBound(s string, upper bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil, nil
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}

	if t, err := time.Parse("2006-01", s); err == nil {
		if upper {
			t = t.AddDate(0, 1, -1)
		}
		return &t, nil
	}

	if t, err := time.Parse("2006", s); err == nil {
		if upper {
			t = t.AddDate(1, 0, -1)
		}
		return &t, nil
	}

	return nil, fmt.Errorf("unparseable date %q", s)
}
