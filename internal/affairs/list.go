package affairs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/metrics"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

// ErrStale marks a fetch whose response arrived after a newer fetch was
// issued. The stale result is discarded so the last filter change wins.
var ErrStale = errors.New("affairs: superseded by a newer fetch")

// Phase is the listing lifecycle state
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseErrored Phase = "errored"
)

// ListResult is one successfully loaded page
type ListResult struct {
	Items       []models.Article `json:"items"`
	Page        int              `json:"page"`
	HasNextPage bool             `json:"hasNextPage"`
	TotalPages  int              `json:"totalPages,omitempty"`
	Notice      string           `json:"notice,omitempty"`
	NoticeTTLms int64            `json:"noticeTTLms,omitempty"`
}

// Snapshot is the externally visible controller state. On a refresh error
// it still carries the previously loaded items so callers can keep prior
// content visible instead of blanking the view.
type Snapshot struct {
	Phase     Phase            `json:"phase"`
	FirstLoad bool             `json:"firstLoad"`
	Items     []models.Article `json:"items"`
	ErrMsg    string           `json:"error,omitempty"`
}

// ListController owns the fetch lifecycle for the paginated, filtered
// article list. Each Fetch is tagged with a monotonically increasing
// sequence number; completions that are no longer the latest are dropped,
// so an earlier slow response can never overwrite a later one.
type ListController struct {
	api       upstream.API
	noticeTTL time.Duration
	log       zerolog.Logger

	seq atomic.Int64

	mu     sync.Mutex
	phase  Phase
	loaded bool
	last   *ListResult
	errMsg string
}

// NewListController creates a listing controller
func NewListController(api upstream.API, noticeTTL time.Duration, log zerolog.Logger) *ListController {
	return &ListController{
		api:       api,
		noticeTTL: noticeTTL,
		log:       log.With().Str("component", "affairs_list").Logger(),
		phase:     PhaseIdle,
	}
}

// Fetch issues exactly one backend call for the given filter state.
//
// hasNextPage is exact when the backend supplies a total count
// (ceil(total/limit) pages); otherwise it falls back to the documented
// heuristic that a full page implies more pages, which can misreport on a
// last page whose total is an exact multiple of the limit.
func (c *ListController) Fetch(ctx context.Context, state models.AffairsFilterState) (*ListResult, error) {
	seq := c.seq.Add(1)

	c.mu.Lock()
	c.phase = PhaseLoading
	c.mu.Unlock()

	page, err := c.api.GetAffairs(ctx, BuildQuery(state))

	if c.seq.Load() != seq {
		metrics.AffairsStaleDropsTotal.Inc()
		c.log.Debug().Int64("seq", seq).Msg("Dropping stale list response")
		return nil, ErrStale
	}

	if err != nil {
		metrics.AffairsFetchesTotal.WithLabelValues("error").Inc()
		c.mu.Lock()
		c.phase = PhaseErrored
		c.errMsg = "failed to load current affairs"
		c.mu.Unlock()
		c.log.Error().Err(err).Int("page", state.Page).Msg("List fetch failed")
		return nil, err
	}

	result := &ListResult{
		Items:       page.Items,
		Page:        state.Page,
		HasNextPage: len(page.Items) == state.Limit,
	}

	if page.TotalCount != nil && state.Limit > 0 {
		result.TotalPages = (*page.TotalCount + state.Limit - 1) / state.Limit
		result.HasNextPage = state.Page < result.TotalPages
	}

	if page.Message != "" {
		result.Notice = page.Message
		result.NoticeTTLms = c.noticeTTL.Milliseconds()
	}

	metrics.AffairsFetchesTotal.WithLabelValues("ok").Inc()

	c.mu.Lock()
	c.phase = PhaseLoaded
	c.loaded = true
	c.last = result
	c.errMsg = ""
	c.mu.Unlock()

	return result, nil
}

// Snapshot returns the current listing state, including retained items
// after a refresh failure.
func (c *ListController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Phase:     c.phase,
		FirstLoad: !c.loaded,
		ErrMsg:    c.errMsg,
	}
	if c.last != nil {
		snap.Items = c.last.Items
	}
	return snap
}
