package criteria

import "strings"

// SearchQuery builds the free-text people-search query. When the query named
// a team or product narrower than the parent company, the narrower term wins
// here; the company-level constraint is still carried by the structured
// filter. Pure function of the Criteria value.
func (c *Criteria) SearchQuery() string {
	parts := make([]string, 0, 1+len(c.RoleKeywords))

	base := c.Company
	if c.TeamOrProduct != "" {
		base = c.TeamOrProduct
	}
	if base != "" {
		parts = append(parts, base)
	}

	parts = append(parts, c.RoleKeywords...)

	return strings.Join(parts, " ")
}

// PastCompanyFilter returns the company name for the directory's structured
// "Past company" filter, or empty when the filter must not be applied. The
// filter always targets the parent company, not the team, so an imperfect
// free-text match still stays inside the right employer.
func (c *Criteria) PastCompanyFilter() string {
	if c.StillEmployedOK {
		return ""
	}
	return c.Company
}
