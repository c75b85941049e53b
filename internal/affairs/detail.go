package affairs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/slug"
	"github.com/upsc-portal-gateway/internal/upstream"
)

// ErrInvalidSlug marks a route parameter rejected before any network call.
// The literal "undefined" leaks out of broken client navigations often
// enough that it gets the same treatment as an empty value.
var ErrInvalidSlug = errors.New("affairs: invalid slug")

// DetailResult is the outcome of resolving a route to an article.
// Exactly one of Article/NotFound/RedirectTo is the interesting field:
// a non-empty RedirectTo still carries the resolved article so the
// redirect needs no second fetch.
type DetailResult struct {
	Article    *models.Article  `json:"article,omitempty"`
	NotFound   bool             `json:"notFound,omitempty"`
	RedirectTo string           `json:"redirectTo,omitempty"`
	Sidebar    []models.Article `json:"sidebar,omitempty"`
}

// DetailController resolves slug or legacy-id routes to a single article
// plus sidebar context.
type DetailController struct {
	api       upstream.API
	listLimit int
	log       zerolog.Logger
}

// NewDetailController creates a detail controller. listLimit sizes the
// list fetch used for slug resolution and the sidebar.
func NewDetailController(api upstream.API, listLimit int, log zerolog.Logger) *DetailController {
	return &DetailController{
		api:       api,
		listLimit: listLimit,
		log:       log.With().Str("component", "affairs_detail").Logger(),
	}
}

// maxResolvePages bounds the slug scan against a backend that never stops
// reporting next pages.
const maxResolvePages = 50

// LoadBySlug resolves an article by its slug. There is no single-item
// by-slug endpoint upstream, so the list is paged through until the slug
// matches or the listing is exhausted. The sidebar always comes from the
// first (newest) page. A slug that no longer matches the freshly computed
// one yields a redirect to the canonical path.
func (c *DetailController) LoadBySlug(ctx context.Context, s string, sidebarDate *time.Time) (*DetailResult, error) {
	if s == "" || s == "undefined" {
		return nil, ErrInvalidSlug
	}

	state := models.NewAffairsFilterState(c.listLimit)
	var article *models.Article
	var firstPage []models.Article

	for state.Page <= maxResolvePages {
		page, err := c.api.GetAffairs(ctx, BuildQuery(state))
		if err != nil {
			return nil, err
		}
		if state.Page == 1 {
			firstPage = page.Items
		}

		if a, ok := slug.Resolve(s, page.Items); ok {
			article = a
			break
		}

		hasNext := len(page.Items) == state.Limit
		if page.TotalCount != nil {
			hasNext = state.Page*state.Limit < *page.TotalCount
		}
		if !hasNext {
			break
		}
		state.SetPage(state.Page + 1)
	}

	if article == nil {
		return &DetailResult{NotFound: true}, nil
	}

	result := &DetailResult{
		Article: article,
		Sidebar: c.sidebar(firstPage, article.ID, sidebarDate),
	}
	if canonical := slug.Slugify(article.Title); canonical != "" && canonical != s {
		result.RedirectTo = slug.Canonical(article)
	}
	return result, nil
}

// LoadByID resolves an article by its legacy id route. The article comes
// from the by-id endpoint; the sidebar list is fetched best-effort and its
// failure never fails the primary content. currentSlug is the slug segment
// of the incoming path, compared against the freshly computed canonical
// slug to decide the redirect.
func (c *DetailController) LoadByID(ctx context.Context, id, currentSlug string, sidebarDate *time.Time) (*DetailResult, error) {
	if id == "" || id == "undefined" {
		return nil, ErrInvalidSlug
	}

	article, err := c.api.GetAffair(ctx, id)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return &DetailResult{NotFound: true}, nil
		}
		return nil, err
	}

	result := &DetailResult{Article: article}

	if canonical := slug.Slugify(article.Title); canonical != "" && canonical != currentSlug {
		result.RedirectTo = slug.Canonical(article)
	}

	state := models.NewAffairsFilterState(c.listLimit)
	page, err := c.api.GetAffairs(ctx, BuildQuery(state))
	if err != nil {
		// Sidebar is secondary data; swallow the failure
		c.log.Warn().Err(err).Msg("Sidebar list fetch failed")
		return result, nil
	}
	result.Sidebar = c.sidebar(page.Items, article.ID, sidebarDate)

	return result, nil
}

func (c *DetailController) sidebar(items []models.Article, excludeID string, date *time.Time) []models.Article {
	var out []models.Article
	for _, a := range items {
		if a.ID == excludeID {
			continue
		}
		if date != nil && !SameCalendarDay(a.Date, *date) {
			continue
		}
		out = append(out, a)
	}
	return out
}
