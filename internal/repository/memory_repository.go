package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// MemoryRepository keeps quotes and itineraries in process memory.
// It implements both QuoteRepository and ItineraryRepository and hands out
// deep copies only.
type MemoryRepository struct {
	mutex       sync.RWMutex
	quotes      map[string]*domain.Quote
	itineraries map[string]*domain.Itinerary
	now         func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		quotes:      make(map[string]*domain.Quote),
		itineraries: make(map[string]*domain.Itinerary),
		now:         time.Now,
	}
}

// Itineraries exposes the repository through the ItineraryRepository method set
func (r *MemoryRepository) Itineraries() ItineraryRepository {
	return memoryItineraries{r}
}

func checkContext(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return &RepositoryError{
			Op:  op,
			Err: ctx.Err(),
		}
	default:
	}
	return nil
}

// Create stores a new quote
func (r *MemoryRepository) Create(ctx context.Context, quote *domain.Quote) error {
	if err := checkContext(ctx, "create_quote"); err != nil {
		return err
	}
	if quote.ID == "" {
		return &RepositoryError{Op: "create_quote", Err: fmt.Errorf("quote id is required")}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.quotes[quote.ID]; exists {
		return &RepositoryError{Op: "create_quote", Err: fmt.Errorf("quote %s already exists", quote.ID)}
	}
	r.quotes[quote.ID] = quote.Clone()
	return nil
}

// GetByID retrieves a quote by its ID
func (r *MemoryRepository) GetByID(ctx context.Context, quoteID string) (*domain.Quote, error) {
	if err := checkContext(ctx, "get_quote"); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	quote, ok := r.quotes[quoteID]
	if !ok {
		return nil, &RepositoryError{Op: "get_quote", Err: domain.ErrQuoteNotFound}
	}
	return quote.Clone(), nil
}

// Update replaces a stored quote
func (r *MemoryRepository) Update(ctx context.Context, quote *domain.Quote) error {
	if err := checkContext(ctx, "update_quote"); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.quotes[quote.ID]; !ok {
		return &RepositoryError{Op: "update_quote", Err: domain.ErrQuoteNotFound}
	}
	r.quotes[quote.ID] = quote.Clone()
	return nil
}

// List returns quote summaries, most recently updated first
func (r *MemoryRepository) List(ctx context.Context, filter domain.QuoteFilter) (*domain.PaginatedQuotes, error) {
	if err := checkContext(ctx, "list_quotes"); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	r.mutex.RLock()
	matches := make([]domain.QuoteSummary, 0, len(r.quotes))
	for _, q := range r.quotes {
		if filter.Name != "" && !strings.Contains(strings.ToLower(q.Name), strings.ToLower(filter.Name)) {
			continue
		}
		matches = append(matches, q.Summary())
	}
	r.mutex.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].UpdatedAt.Equal(matches[j].UpdatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})

	result := &domain.PaginatedQuotes{
		Data: []domain.QuoteSummary{},
		Pagination: domain.Pagination{
			TotalItems:  len(matches),
			TotalPages:  totalPages(len(matches), filter.Limit),
			CurrentPage: filter.Page,
			Limit:       filter.Limit,
		},
	}
	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(matches) {
		return result, nil
	}
	end := min(offset+filter.Limit, len(matches))
	result.Data = append(result.Data, matches[offset:end]...)
	return result, nil
}

type memoryItineraries struct {
	r *MemoryRepository
}

// Create stores a new itinerary
func (m memoryItineraries) Create(ctx context.Context, itinerary *domain.Itinerary) error {
	if err := checkContext(ctx, "create_itinerary"); err != nil {
		return err
	}
	if itinerary.ID == "" {
		return &RepositoryError{Op: "create_itinerary", Err: fmt.Errorf("itinerary id is required")}
	}

	m.r.mutex.Lock()
	defer m.r.mutex.Unlock()

	if _, exists := m.r.itineraries[itinerary.ID]; exists {
		return &RepositoryError{Op: "create_itinerary", Err: fmt.Errorf("itinerary %s already exists", itinerary.ID)}
	}
	cp := *itinerary
	cp.DailyItinerary = domain.CloneDays(itinerary.DailyItinerary)
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = m.r.now()
	}
	m.r.itineraries[itinerary.ID] = &cp
	return nil
}

// GetByID retrieves an itinerary by its ID
func (m memoryItineraries) GetByID(ctx context.Context, itineraryID string) (*domain.Itinerary, error) {
	if err := checkContext(ctx, "get_itinerary"); err != nil {
		return nil, err
	}

	m.r.mutex.RLock()
	defer m.r.mutex.RUnlock()

	it, ok := m.r.itineraries[itineraryID]
	if !ok {
		return nil, &RepositoryError{Op: "get_itinerary", Err: domain.ErrItineraryNotFound}
	}
	cp := *it
	cp.DailyItinerary = domain.CloneDays(it.DailyItinerary)
	return &cp, nil
}

// UpdateDays replaces the day list of an itinerary
func (m memoryItineraries) UpdateDays(ctx context.Context, itineraryID string, days []domain.DayRecord) error {
	if err := checkContext(ctx, "update_itinerary_days"); err != nil {
		return err
	}

	m.r.mutex.Lock()
	defer m.r.mutex.Unlock()

	it, ok := m.r.itineraries[itineraryID]
	if !ok {
		return &RepositoryError{Op: "update_itinerary_days", Err: domain.ErrItineraryNotFound}
	}
	it.DailyItinerary = domain.CloneDays(days)
	it.UpdatedAt = m.r.now()
	return nil
}

// Delete removes an itinerary
func (m memoryItineraries) Delete(ctx context.Context, itineraryID string) error {
	if err := checkContext(ctx, "delete_itinerary"); err != nil {
		return err
	}

	m.r.mutex.Lock()
	defer m.r.mutex.Unlock()

	if _, ok := m.r.itineraries[itineraryID]; !ok {
		return &RepositoryError{Op: "delete_itinerary", Err: domain.ErrItineraryNotFound}
	}
	delete(m.r.itineraries, itineraryID)
	return nil
}
