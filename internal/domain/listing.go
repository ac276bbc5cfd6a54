package domain

import "time"

// QuoteFilter narrows and pages quote listings
type QuoteFilter struct {
	Name  string
	Page  int
	Limit int
}

// Normalize applies the default page and clamps the page size to 1..100
func (f QuoteFilter) Normalize() QuoteFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// Pagination represents pagination metadata
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// QuoteSummary is the list view of a quote
type QuoteSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ItineraryID    *string   `json:"itinerary_id,omitempty"`
	CurrentVersion int       `json:"current_version"`
	VersionCount   int       `json:"version_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Summary returns the list view of the quote
func (q *Quote) Summary() QuoteSummary {
	s := QuoteSummary{
		ID:             q.ID,
		Name:           q.Name,
		CurrentVersion: q.CurrentVersion,
		VersionCount:   len(q.Versions),
		UpdatedAt:      q.UpdatedAt,
	}
	if q.ItineraryID != nil {
		id := *q.ItineraryID
		s.ItineraryID = &id
	}
	return s
}

// PaginatedQuotes represents a paginated list of quotes
type PaginatedQuotes struct {
	Data       []QuoteSummary `json:"data"`
	Pagination Pagination     `json:"pagination"`
}
