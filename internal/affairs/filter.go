// Package affairs owns the current-affairs listing and detail flows:
// filter-to-query translation, GS-paper matching, pagination, and
// slug-canonical article resolution against the coaching backend.
package affairs

import (
	"strconv"
	"strings"
	"time"

	"github.com/upsc-portal-gateway/internal/models"
)

// BuildQuery translates filter state into backend query parameters. Only
// set filters produce keys; empty filters are omitted entirely rather than
// sent as empty strings. A selected date constrains both ends of the
// backend's date range. Pure function, no I/O.
func BuildQuery(s models.AffairsFilterState) map[string]string {
	q := map[string]string{
		"page":  strconv.Itoa(s.Page),
		"limit": strconv.Itoa(s.Limit),
	}

	if search := strings.TrimSpace(s.Search); search != "" {
		q["q"] = search
	}

	if s.SelectedDate != nil {
		day := s.SelectedDate.Format("2006-01-02")
		q["startDate"] = day
		q["endDate"] = day
	}

	if len(s.SelectedPapers) > 0 {
		tokens := make([]string, 0, len(s.SelectedPapers))
		for _, p := range s.SelectedPapers {
			tokens = append(tokens, string(p))
		}
		q["paperName"] = strings.Join(tokens, ",")
	}

	return q
}

// PaperDigits extracts the set of GS-paper digits (1-4) embedded in a
// free-text paperName field. The field is not structured; "GS Paper 2 & 3"
// and "Paper-II/III (2,3)" both reduce to {2,3}.
func PaperDigits(paperName string) map[byte]bool {
	digits := make(map[byte]bool)
	for i := 0; i < len(paperName); i++ {
		if c := paperName[i]; c >= '1' && c <= '4' {
			digits[c] = true
		}
	}
	return digits
}

// MatchesPapers reports whether an article is relevant to any of the
// selected papers. An empty selection matches everything; a non-empty
// selection uses OR semantics across its members.
func MatchesPapers(a models.Article, selected []models.Paper) bool {
	if len(selected) == 0 {
		return true
	}
	digits := PaperDigits(a.PaperName)
	for _, p := range selected {
		if d := p.Digit(); d != 0 && digits[d] {
			return true
		}
	}
	return false
}

// SameCalendarDay reports whether two timestamps carry the same calendar
// date. Comparison is on year/month/day as published, never on the
// wall-clock instant, so two times on the same date classify together no
// matter what timezone offset a viewer renders them in.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
