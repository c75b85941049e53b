// Package slug derives URL-safe identifiers from HTML-bearing article
// titles and resolves incoming slugs back to articles.
package slug

import (
	"regexp"
	"strings"

	"github.com/upsc-portal-gateway/internal/models"
)

var (
	tagRegex     = regexp.MustCompile(`<[^>]*>`)
	entityRegex  = regexp.MustCompile(`&[a-zA-Z#0-9]+;`)
	invalidRegex = regexp.MustCompile(`[^a-z0-9 \-]+`)
	spaceRegex   = regexp.MustCompile(`\s+`)
	hyphenRegex  = regexp.MustCompile(`-+`)
)

// StripHTML removes markup and entities from a rich-text string, leaving
// plain text. Entities are replaced with a space so that adjacent words do
// not fuse.
func StripHTML(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = entityRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Slugify converts a title into a canonical URL slug: strip HTML,
// lowercase, drop everything that is not an ASCII letter, digit, space or
// hyphen, collapse whitespace and hyphen runs to single hyphens, and trim
// leading/trailing hyphens. Non-ASCII titles can slugify to the empty
// string; callers resolve such articles by id instead. The result is
// deterministic and idempotent.
func Slugify(s string) string {
	s = StripHTML(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = invalidRegex.ReplaceAllString(s, "")
	s = spaceRegex.ReplaceAllString(s, "-")
	s = hyphenRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Resolve finds the article matching the given slug. Matching order:
// stored slug field, slugified title, then raw id as a legacy fallback.
// The second return value is false when nothing matches; callers render a
// not-found state rather than erroring.
func Resolve(s string, articles []models.Article) (*models.Article, bool) {
	for i := range articles {
		a := &articles[i]
		if a.Slug != "" && a.Slug == s {
			return a, true
		}
		if Slugify(a.Title) == s {
			return a, true
		}
		if a.ID == s {
			return a, true
		}
	}
	return nil, false
}

// Canonical returns the preferred detail path for an article
func Canonical(a *models.Article) string {
	return "/currentAffairs/" + Slugify(a.Title)
}
