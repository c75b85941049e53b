package affairs_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/affairs"
	"github.com/upsc-portal-gateway/internal/mocks"
	"github.com/upsc-portal-gateway/internal/models"
	"github.com/upsc-portal-gateway/internal/upstream"
)

func TestLoadBySlugRejectsInvalidSlugWithoutNetwork(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	for _, s := range []string{"", "undefined"} {
		if _, err := ctrl.LoadBySlug(context.Background(), s, nil); err != affairs.ErrInvalidSlug {
			t.Errorf("slug %q: expected ErrInvalidSlug, got %v", s, err)
		}
	}
	if mockAPI.GetAffairsCalls != 0 {
		t.Errorf("invalid slug must not reach the network, got %d calls", mockAPI.GetAffairsCalls)
	}
}

func TestLoadBySlugNotFound(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		return &upstream.AffairsPage{Items: makeArticles(5)}, nil
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	result, err := ctrl.LoadBySlug(context.Background(), "this-does-not-exist", nil)
	if err != nil {
		t.Fatalf("LoadBySlug failed: %v", err)
	}
	if !result.NotFound {
		t.Error("expected a not-found result")
	}
	if mockAPI.GetAffairsCalls != 1 {
		t.Errorf("not-found resolution must cost exactly one list fetch, got %d", mockAPI.GetAffairsCalls)
	}
}

func TestLoadBySlugResolvesAndBuildsSidebar(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		return &upstream.AffairsPage{Items: []models.Article{
			{ID: "a1", Title: "Monsoon Session Highlights", Date: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
			{ID: "a2", Title: "Union Budget 2024", Date: time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)},
			{ID: "a3", Title: "Old Story", Date: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)},
		}}, nil
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	result, err := ctrl.LoadBySlug(context.Background(), "monsoon-session-highlights", &day)
	if err != nil {
		t.Fatalf("LoadBySlug failed: %v", err)
	}
	if result.Article == nil || result.Article.ID != "a1" {
		t.Fatalf("expected a1, got %+v", result.Article)
	}
	if result.RedirectTo != "" {
		t.Errorf("canonical slug must not redirect, got %q", result.RedirectTo)
	}
	// Sidebar excludes the current article and anything off the selected day
	if len(result.Sidebar) != 1 || result.Sidebar[0].ID != "a2" {
		t.Errorf("expected sidebar [a2], got %+v", result.Sidebar)
	}
}

func TestLoadBySlugResolvesBeyondFirstPage(t *testing.T) {
	all := make([]models.Article, 30)
	for i := range all {
		all[i] = models.Article{
			ID:    fmt.Sprintf("a%d", i+1),
			Title: fmt.Sprintf("Article Number %d", i+1),
			Date:  time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
		}
	}

	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		page, _ := strconv.Atoi(query["page"])
		limit, _ := strconv.Atoi(query["limit"])
		start := (page - 1) * limit
		if start > len(all) {
			start = len(all)
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		total := len(all)
		return &upstream.AffairsPage{Items: all[start:end], TotalCount: &total}, nil
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	result, err := ctrl.LoadBySlug(context.Background(), "article-number-20", nil)
	if err != nil {
		t.Fatalf("LoadBySlug failed: %v", err)
	}
	if result.NotFound {
		t.Fatal("article on the second page must resolve, not report not-found")
	}
	if result.Article == nil || result.Article.ID != "a20" {
		t.Fatalf("expected a20, got %+v", result.Article)
	}
	if mockAPI.GetAffairsCalls != 2 {
		t.Errorf("expected the scan to stop on page 2, got %d fetches", mockAPI.GetAffairsCalls)
	}
	// Sidebar context stays on the newest page
	for _, a := range result.Sidebar {
		if a.ID == "a20" {
			t.Error("sidebar must exclude the resolved article")
		}
	}
	if len(result.Sidebar) != 12 {
		t.Errorf("expected the 12 newest items as sidebar, got %d", len(result.Sidebar))
	}
}

func TestLoadBySlugExhaustsListingBeforeNotFound(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		page, _ := strconv.Atoi(query["page"])
		if page < 3 {
			return &upstream.AffairsPage{Items: makeArticles(12)}, nil
		}
		return &upstream.AffairsPage{Items: nil}, nil
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	result, err := ctrl.LoadBySlug(context.Background(), "never-published", nil)
	if err != nil {
		t.Fatalf("LoadBySlug failed: %v", err)
	}
	if !result.NotFound {
		t.Error("expected not-found after exhausting the listing")
	}
	if mockAPI.GetAffairsCalls != 3 {
		t.Errorf("expected the scan to run to the empty page, got %d fetches", mockAPI.GetAffairsCalls)
	}
}

func TestLoadBySlugRedirectsLegacyIDReference(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		return &upstream.AffairsPage{Items: []models.Article{
			{ID: "abc123", Title: "New Slug Text"},
		}}, nil
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	// Reached via raw id, resolved by the legacy fallback; must
	// canonicalize
	result, err := ctrl.LoadBySlug(context.Background(), "abc123", nil)
	if err != nil {
		t.Fatalf("LoadBySlug failed: %v", err)
	}
	if result.RedirectTo != "/currentAffairs/new-slug-text" {
		t.Errorf("expected canonical redirect, got %q", result.RedirectTo)
	}
	if result.Article == nil {
		t.Error("redirect result must still carry the resolved article")
	}
}

func TestLoadByIDCanonicalRedirectWithoutRefetch(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairFunc = func(ctx context.Context, id string) (*models.Article, error) {
		return &models.Article{ID: "123", Title: "<b>New</b> Slug Text"}, nil
	}
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		return &upstream.AffairsPage{Items: makeArticles(3)}, nil
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	result, err := ctrl.LoadByID(context.Background(), "123", "old-slug-text", nil)
	if err != nil {
		t.Fatalf("LoadByID failed: %v", err)
	}
	if result.RedirectTo != "/currentAffairs/new-slug-text" {
		t.Errorf("expected canonical redirect, got %q", result.RedirectTo)
	}
	if mockAPI.GetAffairCalls != 1 {
		t.Errorf("redirect must not re-fetch the article, got %d by-id calls", mockAPI.GetAffairCalls)
	}
}

func TestLoadByIDSidebarFailureDoesNotFailPrimary(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	mockAPI.GetAffairFunc = func(ctx context.Context, id string) (*models.Article, error) {
		return &models.Article{ID: "123", Title: "Standalone Story"}, nil
	}
	mockAPI.GetAffairsFunc = func(ctx context.Context, query map[string]string) (*upstream.AffairsPage, error) {
		return nil, fmt.Errorf("list endpoint down")
	}
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	result, err := ctrl.LoadByID(context.Background(), "123", "standalone-story", nil)
	if err != nil {
		t.Fatalf("sidebar failure must not fail the primary content: %v", err)
	}
	if result.Article == nil || result.Article.ID != "123" {
		t.Fatalf("expected the article despite sidebar failure, got %+v", result.Article)
	}
	if len(result.Sidebar) != 0 {
		t.Errorf("expected empty sidebar, got %d items", len(result.Sidebar))
	}
}

func TestLoadByIDNotFound(t *testing.T) {
	mockAPI := mocks.NewMockAPI()
	ctrl := affairs.NewDetailController(mockAPI, 12, zerolog.Nop())

	result, err := ctrl.LoadByID(context.Background(), "gone", "whatever", nil)
	if err != nil {
		t.Fatalf("LoadByID failed: %v", err)
	}
	if !result.NotFound {
		t.Error("expected a not-found result for an unknown id")
	}
}
