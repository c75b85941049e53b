package models

import (
	"time"
)

// Article represents a current-affairs item as served by the coaching
// backend. The client side treats articles as read-only; they are fetched
// per query and never mutated locally.
type Article struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Content      string    `json:"content,omitempty"`
	Date         time.Time `json:"date"`
	PaperName    string    `json:"paperName,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Source       string    `json:"source,omitempty"`
	Slug         string    `json:"slug,omitempty"`
}

// Paper identifies one of the four General Studies papers
type Paper string

const (
	PaperGS1 Paper = "GS1"
	PaperGS2 Paper = "GS2"
	PaperGS3 Paper = "GS3"
	PaperGS4 Paper = "GS4"
)

// ValidPapers defines the allowed paper filter tokens
var ValidPapers = map[Paper]bool{
	PaperGS1: true,
	PaperGS2: true,
	PaperGS3: true,
	PaperGS4: true,
}

// Digit returns the paper's numeric digit ('1'..'4'), or 0 for an
// unrecognized token.
func (p Paper) Digit() byte {
	if len(p) == 3 && p[0] == 'G' && p[1] == 'S' && p[2] >= '1' && p[2] <= '4' {
		return p[2]
	}
	return 0
}

// AffairsFilterState holds the user-selected listing filters. Page is
// 1-based; changing any other filter resets it to 1, which the setter
// methods enforce.
type AffairsFilterState struct {
	Page           int
	Limit          int
	Search         string
	SelectedDate   *time.Time
	SelectedPapers []Paper
}

// NewAffairsFilterState returns a filter state positioned at page 1
func NewAffairsFilterState(limit int) AffairsFilterState {
	return AffairsFilterState{Page: 1, Limit: limit}
}

// SetPage moves to the given 1-based page, leaving filters untouched
func (s *AffairsFilterState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// SetDate changes the selected date and resets pagination
func (s *AffairsFilterState) SetDate(date *time.Time) {
	s.SelectedDate = date
	s.Page = 1
}

// SetPapers changes the GS-paper selection and resets pagination.
// Unrecognized tokens are dropped.
func (s *AffairsFilterState) SetPapers(papers []Paper) {
	var valid []Paper
	for _, p := range papers {
		if ValidPapers[p] {
			valid = append(valid, p)
		}
	}
	s.SelectedPapers = valid
	s.Page = 1
}

// SetSearch changes the free-text search and resets pagination
func (s *AffairsFilterState) SetSearch(q string) {
	s.Search = q
	s.Page = 1
}
