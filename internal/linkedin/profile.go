package linkedin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"talentscout/internal/utils"
)

// experienceSuffix is the detail surface listing every position, not only
// the preview shown on the profile itself.
const experienceSuffix = "/details/experience/"

// ErrNoExperience is returned when a profile page yields no usable
// experience entries.
var ErrNoExperience = errors.New("no experience entries found")

// WorkHistory navigates to the profile's full experience surface and returns
// its flattened work-history text, most recent position first as rendered.
// A failed navigation is retried once after the scraper's backoff.
func (s *Scraper) WorkHistory(ctx context.Context, profile *Profile) (*WorkHistory, error) {
	url := strings.TrimRight(profile.URL, "/") + experienceSuffix

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	html, err := s.session.Navigate(ctx, url)
	if err != nil {
		s.logger.Warn("profile fetch failed, retrying once",
			zap.String("profile", profile.URL),
			zap.Error(err),
		)

		if werr := utils.WaitFor(ctx, s.RetryBackoff); werr != nil {
			return nil, werr
		}

		if html, err = s.session.Navigate(ctx, url); err != nil {
			return nil, fmt.Errorf("fetch profile %s: %w", profile.URL, err)
		}
	}

	text, err := ExtractExperienceText(html)
	if err != nil {
		return nil, fmt.Errorf("extract experience for %s: %w", profile.URL, err)
	}

	return &WorkHistory{
		ProfileURL:  profile.URL,
		Text:        text,
		ExtractedAt: time.Now().UTC(),
	}, nil
}

// ExtractExperienceText flattens the experience list of a profile detail
// page into normalized text, one entry per line, preserving page order.
func ExtractExperienceText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	items := doc.Find("li.pvs-list__paged-list-item")
	if items.Length() == 0 {
		items = doc.Find("main section li")
	}

	var entries []string
	seen := make(map[string]bool)

	items.Each(func(_ int, item *goquery.Selection) {
		entry := flattenEntry(item)
		if entry == "" || seen[entry] {
			return
		}
		seen[entry] = true
		entries = append(entries, entry)
	})

	if len(entries) == 0 {
		return "", ErrNoExperience
	}

	return strings.Join(entries, "\n"), nil
}

// flattenEntry reduces one experience list item to a single normalized line.
// The visible copy lives in aria-hidden spans; everything else on the item
// is duplicated screen-reader text or controls.
func flattenEntry(item *goquery.Selection) string {
	var parts []string

	item.Find(`span[aria-hidden="true"]`).Each(func(_ int, span *goquery.Selection) {
		text := CleanText(span.Text())
		if text == "" || len(text) > 200 {
			return
		}
		parts = append(parts, text)
	})

	if len(parts) == 0 {
		// Plain markup fallback: flatten the whole item.
		if text := CleanText(item.Text()); text != "" {
			parts = append(parts, text)
		}
	}

	entry := strings.Join(parts, " · ")
	if len(entry) < 20 || len(entry) > 3000 {
		return ""
	}

	lower := strings.ToLower(entry)
	if strings.Contains(lower, "show all") || strings.Contains(lower, "see more") {
		return ""
	}

	return entry
}
