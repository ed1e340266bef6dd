package linkedin

import (
	"context"
	"errors"
	"time"
)

// ErrNoMorePages is returned by Session.NextPage when pagination is
// exhausted.
var ErrNoMorePages = errors.New("no more result pages")

// Session is the browser capability the pipeline consumes. The implementation
// owns the authenticated browser state; the pipeline never manages login or
// navigation mechanics. A session serves one navigation at a time.
type Session interface {
	// Navigate loads the given URL and returns the rendered page HTML.
	Navigate(ctx context.Context, url string) (string, error)
	// Search runs a people search with the given free-text query and
	// optional past-company filter, returning the first result page HTML.
	Search(ctx context.Context, query, pastCompany string) (string, error)
	// NextPage advances to the next result page, preserving applied
	// filters. Returns ErrNoMorePages when pagination is exhausted.
	NextPage(ctx context.Context) (string, error)
}

// Profile is a minimal reference to a discovered profile prior to detailed
// extraction. The canonical URL is the identity key within a run.
type Profile struct {
	Name     string
	URL      string
	Headline string
	Page     int
}

// WorkHistory is the flattened, whitespace-normalized work-history text
// extracted from a profile. It back-references the profile by URL and is
// discarded after evaluation.
type WorkHistory struct {
	ProfileURL  string
	Text        string
	ExtractedAt time.Time
}
