package repository

import (
	"context"
	"fmt"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// RepositoryError represents an error that occurred within a repository
type RepositoryError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// QuoteRepository defines the interface for quote data operations.
// GetByID and Update report a missing quote with domain.ErrQuoteNotFound.
type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.Quote) error
	GetByID(ctx context.Context, quoteID string) (*domain.Quote, error)
	Update(ctx context.Context, quote *domain.Quote) error
	List(ctx context.Context, filter domain.QuoteFilter) (*domain.PaginatedQuotes, error)
}

// ItineraryRepository defines the interface for itinerary data operations.
// A missing itinerary is reported with domain.ErrItineraryNotFound.
type ItineraryRepository interface {
	Create(ctx context.Context, itinerary *domain.Itinerary) error
	GetByID(ctx context.Context, itineraryID string) (*domain.Itinerary, error)
	// UpdateDays replaces the whole day list in one write
	UpdateDays(ctx context.Context, itineraryID string, days []domain.DayRecord) error
	Delete(ctx context.Context, itineraryID string) error
}

func totalPages(totalItems, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}
