package linkedin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"talentscout/internal/utils"
)

const defaultRetryBackoff = 5 * time.Second

// Scraper drives the search and extraction surfaces of a single browser
// session. The limiter enforces the mandatory inter-request delay; every
// navigation goes through it. Not safe for concurrent use: the underlying
// session holds one page at a time.
type Scraper struct {
	// RetryBackoff is the delay before the single retry of a failed fetch.
	RetryBackoff time.Duration

	session Session
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewScraper(session Session, limiter *rate.Limiter, logger *zap.Logger) *Scraper {
	return &Scraper{
		RetryBackoff: defaultRetryBackoff,
		session:      session,
		limiter:      limiter,
		logger:       logger,
	}
}

// Collection is a cursor over paginated search results. The caller pulls one
// page batch at a time, which keeps the page ceiling and cancellation checks
// on the caller's side of the boundary.
type Collection struct {
	scraper     *Scraper
	query       string
	pastCompany string

	seen map[string]bool
	page int
	done bool
}

// Collect starts a search and returns a cursor over its result pages. No
// request is made until the first Next call.
func (s *Scraper) Collect(query, pastCompany string) *Collection {
	return &Collection{
		scraper:     s,
		query:       query,
		pastCompany: pastCompany,
		seen:        make(map[string]bool),
	}
}

// Done reports whether the collection is exhausted. Next returns no further
// profiles once Done is true.
func (c *Collection) Done() bool {
	return c.done
}

// Next fetches and parses one result page, returning the de-duplicated
// identity rows found on it. A failed fetch is retried once after a backoff;
// a second failure ends the collection with an error, leaving previously
// returned batches intact on the caller's side.
func (c *Collection) Next(ctx context.Context) ([]*Profile, error) {
	if c.done {
		return nil, nil
	}

	html, err := c.fetch(ctx)
	if err != nil {
		c.done = true
		if errors.Is(err, ErrNoMorePages) {
			return nil, nil
		}
		return nil, err
	}

	c.page++

	extract, err := parseResultsPage(html, c.page, c.seen)
	if err != nil {
		c.done = true
		return nil, fmt.Errorf("parse result page %d: %w", c.page, err)
	}

	c.scraper.logger.Info("collected result page",
		zap.Int("page", c.page),
		zap.Int("profiles", len(extract.Profiles)),
		zap.Int("noise_dropped", extract.Noise),
		zap.Int("duplicates_dropped", extract.Duplicate),
	)

	if extract.Capped {
		c.done = true
		c.scraper.logger.Warn("search allowance reached, stopping pagination",
			zap.Int("page", c.page))
		return extract.Profiles, nil
	}

	if len(extract.Profiles) == 0 && extract.Noise == 0 && extract.Duplicate == 0 {
		c.done = true
	}

	return extract.Profiles, nil
}

func (c *Collection) fetch(ctx context.Context) (string, error) {
	if err := c.scraper.limiter.Wait(ctx); err != nil {
		return "", err
	}

	html, err := c.fetchOnce(ctx)
	if err == nil || errors.Is(err, ErrNoMorePages) {
		return html, err
	}

	c.scraper.logger.Warn("page fetch failed, retrying once",
		zap.Int("page", c.page+1),
		zap.Error(err),
	)

	if werr := utils.WaitFor(ctx, c.scraper.RetryBackoff); werr != nil {
		return "", werr
	}

	html, err = c.fetchOnce(ctx)
	if err != nil && !errors.Is(err, ErrNoMorePages) {
		return "", fmt.Errorf("fetch result page %d: %w", c.page+1, err)
	}

	return html, err
}

func (c *Collection) fetchOnce(ctx context.Context) (string, error) {
	if c.page == 0 {
		return c.scraper.session.Search(ctx, c.query, c.pastCompany)
	}
	return c.scraper.session.NextPage(ctx)
}
