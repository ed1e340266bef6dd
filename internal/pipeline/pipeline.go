package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"talentscout/internal/ai"
	"talentscout/internal/criteria"
	"talentscout/internal/linkedin"
)

// Candidate pairs a discovered identity with the verdict made on it. Only
// matching candidates enter the CandidateSet.
type Candidate struct {
	Profile  *linkedin.Profile
	Decision *ai.Decision
}

// CandidateSet is the result of one pipeline run. It is owned by the
// pipeline while the run is in flight and frozen once Run returns.
// Incomplete marks a set cut short by cancellation.
type CandidateSet struct {
	Query      string
	Criteria   *criteria.Criteria
	Candidates []*Candidate

	Collected  int
	Evaluated  int
	Rejected   int
	Skipped    int
	Incomplete bool
}

// Len returns the number of matching candidates.
func (s *CandidateSet) Len() int {
	return len(s.Candidates)
}

// Config bounds one run. Zero values mean unbounded.
type Config struct {
	// MaxPages caps how many result pages are collected.
	MaxPages int
	// MaxProfiles caps how many collected profiles are analyzed.
	MaxProfiles int
}

// Pipeline sequences criteria extraction, collection, profile extraction and
// eligibility evaluation over a single browser session. One candidate moves
// through extraction and evaluation at a time: the session is a single
// mutable resource and concurrent navigations would cross-contaminate it.
type Pipeline struct {
	parser    ai.QueryParser
	evaluator ai.Evaluator
	scraper   *linkedin.Scraper
	logger    *zap.Logger
	cfg       Config
}

func New(parser ai.QueryParser, evaluator ai.Evaluator, scraper *linkedin.Scraper, logger *zap.Logger, cfg Config) *Pipeline {
	return &Pipeline{
		parser:    parser,
		evaluator: evaluator,
		scraper:   scraper,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run executes the full discovery pipeline for one query. Only pre-paging
// failures (an ambiguous or contradictory query) abort the run; every later
// failure degrades to fewer candidates. On cancellation the set gathered so
// far is returned with Incomplete set, checked between candidates, never
// mid-call.
func (p *Pipeline) Run(ctx context.Context, query string) (*CandidateSet, error) {
	c, err := p.parser.Parse(ctx, query)
	if err != nil {
		return nil, err
	}

	return p.RunWithCriteria(ctx, c)
}

// RunWithCriteria runs collection and analysis for already-extracted
// criteria. Callers that confirm criteria with the user first enter here.
func (p *Pipeline) RunWithCriteria(ctx context.Context, c *criteria.Criteria) (*CandidateSet, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	set := &CandidateSet{
		Query:    c.OriginalQuery,
		Criteria: c,
	}

	p.logger.Info("starting candidate discovery",
		zap.String("search", c.SearchQuery()),
		zap.String("past_company_filter", c.PastCompanyFilter()),
	)

	profiles, cancelled := p.collect(ctx, c)
	set.Collected = len(profiles)
	set.Incomplete = cancelled

	p.logger.Info("collection finished",
		zap.Int("profiles", len(profiles)),
		zap.Bool("incomplete", set.Incomplete),
	)

	if !cancelled {
		p.analyze(ctx, c, profiles, set)
	}

	p.logger.Info("run finished",
		zap.Int("matches", set.Len()),
		zap.Int("evaluated", set.Evaluated),
		zap.Int("rejected", set.Rejected),
		zap.Int("skipped", set.Skipped),
		zap.Bool("incomplete", set.Incomplete),
	)

	return set, nil
}

// collect drains the result-page cursor, applying the page ceiling and the
// cancellation check between batches. A mid-collection fetch failure is a
// partial result, not an error.
func (p *Pipeline) collect(ctx context.Context, c *criteria.Criteria) ([]*linkedin.Profile, bool) {
	collection := p.scraper.Collect(c.SearchQuery(), c.PastCompanyFilter())

	var profiles []*linkedin.Profile
	pages := 0

	for !collection.Done() {
		if ctx.Err() != nil {
			return profiles, true
		}

		if p.cfg.MaxPages > 0 && pages >= p.cfg.MaxPages {
			break
		}

		batch, err := collection.Next(ctx)
		pages++

		if err != nil {
			if cancelled(err) {
				return profiles, true
			}
			p.logger.Warn("collection ended early, keeping partial results",
				zap.Int("profiles_so_far", len(profiles)),
				zap.Error(err),
			)
			break
		}

		profiles = append(profiles, batch...)
	}

	return profiles, false
}

// analyze runs extraction and evaluation candidate by candidate. Extraction
// or evaluation failure skips that candidate and the run continues.
func (p *Pipeline) analyze(ctx context.Context, c *criteria.Criteria, profiles []*linkedin.Profile, set *CandidateSet) {
	for i, profile := range profiles {
		if ctx.Err() != nil {
			set.Incomplete = true
			return
		}

		if p.cfg.MaxProfiles > 0 && i >= p.cfg.MaxProfiles {
			return
		}

		state := statePending

		p.logger.Info("analyzing candidate",
			zap.Int("index", i+1),
			zap.Int("total", len(profiles)),
			zap.String("name", profile.Name),
			zap.String("profile", profile.URL),
		)

		history, err := p.scraper.WorkHistory(ctx, profile)
		if err != nil {
			if cancelled(err) {
				set.Incomplete = true
				return
			}
			state = state.advance(stateSkipped)
			set.Skipped++
			p.logger.Warn("skipping candidate",
				zap.String("profile", profile.URL),
				zap.String("state", state.String()),
				zap.Error(err),
			)
			continue
		}
		state = state.advance(stateExtracted)

		decision, err := p.evaluator.Evaluate(ctx, c, history)
		if err != nil {
			if cancelled(err) {
				set.Incomplete = true
				return
			}
			state = state.advance(stateSkipped)
			set.Skipped++
			p.logger.Warn("skipping candidate",
				zap.String("profile", profile.URL),
				zap.String("state", state.String()),
				zap.Error(err),
			)
			continue
		}
		state = state.advance(stateEvaluated)
		set.Evaluated++

		p.logger.Info("candidate evaluated",
			zap.String("profile", profile.URL),
			zap.Bool("match", decision.Match),
			zap.String("confidence", decision.Confidence),
			zap.String("left_date", decision.LeftDate),
			zap.String("reasoning", decision.Reasoning),
		)

		if decision.Match {
			set.Candidates = append(set.Candidates, &Candidate{
				Profile:  profile,
				Decision: decision,
			})
		} else {
			set.Rejected++
		}
	}
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
