package criteria

import "testing"

func TestSearchQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria Criteria
		expect   string
	}{
		{
			name:     "company with role keywords",
			criteria: Criteria{Company: "Acme", RoleKeywords: []string{"engineer", "designer"}},
			expect:   "Acme engineer designer",
		},
		{
			name:     "team wins over parent company",
			criteria: Criteria{Company: "Uber", TeamOrProduct: "Uber Eats", RoleKeywords: []string{"engineer"}},
			expect:   "Uber Eats engineer",
		},
		{
			name:     "temporal only query",
			criteria: Criteria{MaxMonthsAgo: 30, RoleKeywords: []string{"engineer"}},
			expect:   "engineer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.criteria.SearchQuery(); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestSearchQueryIsStable(t *testing.T) {
	t.Parallel()

	c := Criteria{Company: "Acme", RoleKeywords: []string{"engineer"}}
	first := c.SearchQuery()
	for i := 0; i < 3; i++ {
		if got := c.SearchQuery(); got != first {
			t.Fatalf("expected a stable query, got %q then %q", first, got)
		}
	}
}

func TestPastCompanyFilter(t *testing.T) {
	t.Parallel()

	former := Criteria{Company: "Acme"}
	if got := former.PastCompanyFilter(); got != "Acme" {
		t.Fatalf("expected the parent company, got %q", got)
	}

	current := Criteria{Company: "Acme", StillEmployedOK: true}
	if got := current.PastCompanyFilter(); got != "" {
		t.Fatalf("expected no filter when current employees are wanted, got %q", got)
	}

	narrowed := Criteria{Company: "Uber", TeamOrProduct: "Uber Eats"}
	if got := narrowed.PastCompanyFilter(); got != "Uber" {
		t.Fatalf("expected the filter to target the parent company, got %q", got)
	}
}
