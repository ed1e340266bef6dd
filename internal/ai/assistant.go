package ai

import (
	"context"

	"talentscout/internal/criteria"
	"talentscout/internal/linkedin"
)

// Decision is the classifier's verdict on one candidate. Immutable once
// produced; Criteria is the snapshot the verdict was made against.
type Decision struct {
	ProfileURL    string
	Match         bool
	Reasoning     string
	TargetCompany string
	LeftDate      string
	Confidence    string
	Raw           string
	Criteria      *criteria.Criteria
}

// QueryParser turns a free-text recruiting query into structured criteria.
type QueryParser interface {
	Parse(ctx context.Context, query string) (*criteria.Criteria, error)
}

// Evaluator judges one candidate's work history against the criteria.
type Evaluator interface {
	Evaluate(ctx context.Context, c *criteria.Criteria, history *linkedin.WorkHistory) (*Decision, error)
}
