package linkedin

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const profileHost = "https://www.linkedin.com"

// accessCapMarker appears on the page shown once the account hits its
// monthly search allowance. It ends pagination cleanly.
const accessCapMarker = "monthly limit"

var (
	profilePathRe = regexp.MustCompile(`(/in/[^/?#]+)`)
	mutualRowRe   = regexp.MustCompile(`(?i)(^\d+\s+mutual connections?$|is a mutual connection)`)
)

// anonymousPlaceholder is the display name the directory renders for
// profiles outside the viewer's network.
const anonymousPlaceholder = "linkedin member"

// actionLabels are anchor texts that belong to row controls, not identities.
var actionLabels = map[string]bool{
	"view":    true,
	"message": true,
	"connect": true,
	"follow":  true,
}

// pageExtract is the outcome of parsing a single search result page, with
// per-filter accounting for logging.
type pageExtract struct {
	Profiles  []*Profile
	Noise     int
	Duplicate int
	Capped    bool
}

// parseResultsPage extracts identity rows from a search result page. Rows
// already present in seen are counted as duplicates and dropped; first
// occurrence wins. Insertion order follows document order.
func parseResultsPage(html string, page int, seen map[string]bool) (*pageExtract, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := &pageExtract{
		Capped: strings.Contains(strings.ToLower(html), accessCapMarker),
	}

	doc.Find(`a[href*="/in/"]`).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		url := CanonicalProfileURL(href)
		if url == "" {
			return
		}

		name, headline := splitAnchorText(link.Text())
		if !isIdentityRow(name, link) {
			out.Noise++
			return
		}

		if seen[url] {
			out.Duplicate++
			return
		}
		seen[url] = true

		out.Profiles = append(out.Profiles, &Profile{
			Name:     name,
			URL:      url,
			Headline: headline,
			Page:     page,
		})
	})

	return out, nil
}

// CanonicalProfileURL reduces any profile href to its canonical form, or
// returns empty when the href does not point at a profile.
func CanonicalProfileURL(href string) string {
	match := profilePathRe.FindStringSubmatch(href)
	if match == nil {
		return ""
	}
	return profileHost + match[1]
}

// isIdentityRow reports whether the anchor represents a real identity rather
// than an anonymous placeholder, a mutual-connection annotation, or a row
// control.
func isIdentityRow(name string, link *goquery.Selection) bool {
	if len(name) < 2 || len(name) > 60 {
		return false
	}

	lower := strings.ToLower(name)
	if lower == anonymousPlaceholder || actionLabels[lower] {
		return false
	}

	if mutualRowRe.MatchString(name) {
		return false
	}

	// Mutual-connection mentions link to profiles too; the annotation text
	// sits within a couple of ancestors of the anchor.
	parent := link.Parent()
	for i := 0; i < 2 && parent.Length() > 0; i++ {
		text := strings.ToLower(parent.Text())
		if strings.Contains(text, "mutual connection") &&
			(strings.Contains(text, " and ") || strings.Contains(text, "is a mutual")) {
			return false
		}
		parent = parent.Parent()
	}

	return true
}

// splitAnchorText takes the anchor's text and returns the display name and,
// when the anchor carries a second line, a short headline.
func splitAnchorText(raw string) (name, headline string) {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = CleanText(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	if len(cleaned) == 0 {
		return "", ""
	}

	name = cleaned[0]
	if len(cleaned) > 1 && len(cleaned[1]) <= 200 {
		headline = cleaned[1]
	}
	return name, headline
}

// CleanText collapses runs of whitespace, including non-breaking spaces,
// into single spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
