package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/affairs"
	"github.com/upsc-portal-gateway/internal/models"
)

// AffairsHandler handles current-affairs endpoints
type AffairsHandler struct {
	list     *affairs.ListController
	detail   *affairs.DetailController
	pageSize int
	log      zerolog.Logger
}

// NewAffairsHandler creates a new AffairsHandler
func NewAffairsHandler(list *affairs.ListController, detail *affairs.DetailController, pageSize int, log zerolog.Logger) *AffairsHandler {
	return &AffairsHandler{
		list:     list,
		detail:   detail,
		pageSize: pageSize,
		log:      log.With().Str("handler", "affairs").Logger(),
	}
}

// List handles GET /v1/affairs
// Query params: page, q, date (YYYY-MM-DD), papers (comma-joined GS tokens)
func (h *AffairsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	state := models.NewAffairsFilterState(h.pageSize)

	if q := c.Query("q"); q != "" {
		state.SetSearch(q)
	}
	if d := c.Query("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		state.SetDate(&day)
	}
	if papers := c.QueryArray("papers"); len(papers) > 0 {
		tokens := make([]models.Paper, 0, len(papers))
		for _, p := range papers {
			tokens = append(tokens, models.Paper(p))
		}
		state.SetPapers(tokens)
	}
	// Page applies last: filter setters reset it to 1
	if p := c.Query("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		state.SetPage(page)
	}

	result, err := h.list.Fetch(ctx, state)
	if err != nil {
		if errors.Is(err, affairs.ErrStale) {
			c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer request"})
			return
		}
		// Keep prior content visible on a refresh failure
		snap := h.list.Snapshot()
		if !snap.FirstLoad && len(snap.Items) > 0 {
			c.JSON(http.StatusOK, gin.H{
				"items": snap.Items,
				"stale": true,
				"error": snap.ErrMsg,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load current affairs"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Detail handles GET /currentAffairs/:slug
func (h *AffairsHandler) Detail(c *gin.Context) {
	h.renderDetail(c, func(sidebarDate *time.Time) (*affairs.DetailResult, error) {
		return h.detail.LoadBySlug(c.Request.Context(), c.Param("slug"), sidebarDate)
	})
}

// LegacyDetail handles GET /currentAffairs/:slug/:legacySlug, where the
// first segment is the legacy article id. It always lands on a 301 to the
// canonical slug path unless the id is gone.
func (h *AffairsHandler) LegacyDetail(c *gin.Context) {
	h.renderDetail(c, func(sidebarDate *time.Time) (*affairs.DetailResult, error) {
		return h.detail.LoadByID(c.Request.Context(), c.Param("slug"), c.Param("legacySlug"), sidebarDate)
	})
}

func (h *AffairsHandler) renderDetail(c *gin.Context, load func(*time.Time) (*affairs.DetailResult, error)) {
	var sidebarDate *time.Time
	if d := c.Query("date"); d != "" {
		if day, err := time.Parse("2006-01-02", d); err == nil {
			sidebarDate = &day
		}
	}

	result, err := load(sidebarDate)
	if err != nil {
		if errors.Is(err, affairs.ErrInvalidSlug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article reference"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load article"})
		return
	}

	if result.NotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	if result.RedirectTo != "" {
		c.Redirect(http.StatusMovedPermanently, result.RedirectTo)
		return
	}

	c.JSON(http.StatusOK, result)
}
