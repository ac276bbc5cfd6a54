package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/itinerarysync"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/pricing"
	"github.com/ridwanfathin/tour-quote-service/internal/repository"
)

// QuoteServiceError represents an error in the quote service
type QuoteServiceError struct {
	Op  string
	Err error
}

func (e *QuoteServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *QuoteServiceError) Unwrap() error {
	return e.Err
}

// RateProvider returns how many units of to one unit of from buys
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// VersionArchiver stores a copy of a saved version outside the quote store
type VersionArchiver interface {
	Archive(ctx context.Context, quoteID string, record domain.VersionRecord) (string, error)
}

// QuoteService defines the interface for quote pricing business logic
type QuoteService interface {
	// Quote operations
	CreateQuote(ctx context.Context, input CreateQuoteInput) (*domain.Quote, error)
	GetQuote(ctx context.Context, quoteID string) (*domain.Quote, error)
	ListQuotes(ctx context.Context, filter domain.QuoteFilter) (*domain.PaginatedQuotes, error)
	UpdateQuote(ctx context.Context, quoteID string, input UpdateQuoteInput) (*domain.Quote, error)
	UpdateState(ctx context.Context, quoteID string, state domain.PricingState) (*domain.Quote, error)

	// Pricing operations
	Calculate(ctx context.Context, state domain.PricingState, tiers []domain.TierPricing) (*Calculation, error)
	GetCalculation(ctx context.Context, quoteID, currency string) (*Calculation, error)
	SetTiers(ctx context.Context, quoteID string, tiers []domain.TierPricing) (*domain.Quote, error)
	ApplyLocalTiers(ctx context.Context, quoteID string, ladder []pricing.LocalTier) (*domain.Quote, error)

	// Version operations
	SaveVersion(ctx context.Context, quoteID string, input SaveVersionInput) (*SavedVersion, error)
	ListVersions(ctx context.Context, quoteID string) (*VersionList, error)
	LoadVersion(ctx context.Context, quoteID string, index int) (*domain.Quote, error)
	DeleteVersion(ctx context.Context, quoteID string, index int) (*domain.Quote, error)

	// Itinerary sync operations
	PreviewMealSync(ctx context.Context, quoteID string) (*itinerarysync.Preview, error)
	ApplyMealSync(ctx context.Context, quoteID string, diffs []domain.MealDiff) (*itinerarysync.ApplyResult, error)
	SyncAccommodation(ctx context.Context, quoteID string) (*itinerarysync.AccommodationResult, error)
	BuildItineraryDraft(ctx context.Context, quoteID string) (*itinerarysync.Draft, error)
	CreateItineraryFromQuote(ctx context.Context, quoteID string) (*domain.Itinerary, error)
	ImportItineraryMeals(ctx context.Context, quoteID string) (*ImportResult, error)
	ImportItineraryActivities(ctx context.Context, quoteID string) (*ImportResult, error)

	// Itinerary operations
	CreateItinerary(ctx context.Context, itinerary *domain.Itinerary) (*domain.Itinerary, error)
	GetItinerary(ctx context.Context, itineraryID string) (*domain.Itinerary, error)
}

// CreateQuoteInput carries the fields of a new quote. A nil state starts
// with every category empty.
type CreateQuoteInput struct {
	Name         string
	ItineraryID  *string
	State        *domain.PricingState
	TierPricings []domain.TierPricing
}

// UpdateQuoteInput changes the quote's header fields. An empty ItineraryID
// pointer value removes the link.
type UpdateQuoteInput struct {
	Name        *string
	ItineraryID *string
}

// QuoteServiceImpl implements the QuoteService interface
type QuoteServiceImpl struct {
	quotes       repository.QuoteRepository
	itineraries  repository.ItineraryRepository
	engine       *itinerarysync.Engine
	archiver     VersionArchiver
	rates        RateProvider
	metrics      *metrics.Metrics
	baseCurrency string
	locks        *keyedMutex
	workerPool   chan struct{}
	newID        func() string
	now          func() time.Time
}

// Dependencies wires the collaborators of the quote service. Archiver and
// Rates are optional.
type Dependencies struct {
	Quotes       repository.QuoteRepository
	Itineraries  repository.ItineraryRepository
	Archiver     VersionArchiver
	Rates        RateProvider
	Metrics      *metrics.Metrics
	BaseCurrency string
	MaxWorkers   int
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(deps Dependencies) *QuoteServiceImpl {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.MaxWorkers <= 0 {
		deps.MaxWorkers = 1
	}
	if deps.BaseCurrency == "" {
		deps.BaseCurrency = "TWD"
	}

	s := &QuoteServiceImpl{
		quotes:       deps.Quotes,
		itineraries:  deps.Itineraries,
		archiver:     deps.Archiver,
		rates:        deps.Rates,
		metrics:      deps.Metrics,
		baseCurrency: strings.ToUpper(deps.BaseCurrency),
		locks:        newKeyedMutex(),
		workerPool:   make(chan struct{}, deps.MaxWorkers),
		newID:        uuid.NewString,
		now:          time.Now,
	}
	s.engine = itinerarysync.NewEngine(deps.Itineraries, itinerarysync.WithLogger(log.Printf))
	return s
}

// CreateQuote creates a new quote
func (s *QuoteServiceImpl) CreateQuote(ctx context.Context, input CreateQuoteInput) (*domain.Quote, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, &QuoteServiceError{
			Op:  "validate_quote",
			Err: &domain.ValidationError{Field: "name", Message: "is required"},
		}
	}

	quote := domain.NewQuote(s.newID(), strings.TrimSpace(input.Name))
	if input.ItineraryID != nil && *input.ItineraryID != "" {
		id := *input.ItineraryID
		quote.ItineraryID = &id
	}
	if input.State != nil {
		state, err := s.normalizeState(*input.State)
		if err != nil {
			return nil, &QuoteServiceError{Op: "validate_state", Err: err}
		}
		quote.State = state
	}
	if input.TierPricings != nil {
		tiers, err := s.normalizeTiers(input.TierPricings)
		if err != nil {
			return nil, &QuoteServiceError{Op: "validate_tiers", Err: err}
		}
		quote.TierPricings = tiers
	}

	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, &QuoteServiceError{Op: "create_quote", Err: err}
	}
	log.Printf("Created quote %s (%s)", quote.ID, quote.Name)
	return quote, nil
}

// GetQuote retrieves a quote by its ID
func (s *QuoteServiceImpl) GetQuote(ctx context.Context, quoteID string) (*domain.Quote, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "get_quote", Err: err}
	}
	return quote, nil
}

// ListQuotes lists quote summaries with pagination
func (s *QuoteServiceImpl) ListQuotes(ctx context.Context, filter domain.QuoteFilter) (*domain.PaginatedQuotes, error) {
	page, err := s.quotes.List(ctx, filter.Normalize())
	if err != nil {
		return nil, &QuoteServiceError{Op: "list_quotes", Err: err}
	}
	return page, nil
}

// UpdateQuote renames a quote or changes its itinerary link
func (s *QuoteServiceImpl) UpdateQuote(ctx context.Context, quoteID string, input UpdateQuoteInput) (*domain.Quote, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, &QuoteServiceError{
			Op:  "validate_quote",
			Err: &domain.ValidationError{Field: "name", Message: "must not be empty"},
		}
	}

	return s.mutate(ctx, quoteID, "update_quote", func(quote *domain.Quote) error {
		if input.Name != nil {
			quote.Name = strings.TrimSpace(*input.Name)
		}
		if input.ItineraryID != nil {
			if *input.ItineraryID == "" {
				quote.ItineraryID = nil
			} else {
				id := *input.ItineraryID
				quote.ItineraryID = &id
			}
		}
		return nil
	})
}

// UpdateState replaces the live pricing state. Derived subtotals and totals
// are recomputed before the quote is stored.
func (s *QuoteServiceImpl) UpdateState(ctx context.Context, quoteID string, state domain.PricingState) (*domain.Quote, error) {
	normalized, err := s.normalizeState(state)
	if err != nil {
		return nil, &QuoteServiceError{Op: "validate_state", Err: err}
	}

	return s.mutate(ctx, quoteID, "update_state", func(quote *domain.Quote) error {
		quote.State = normalized
		return nil
	})
}

// mutate runs fn on a fresh copy of the quote under the quote's lock and
// stores the result
func (s *QuoteServiceImpl) mutate(ctx context.Context, quoteID, op string, fn func(quote *domain.Quote) error) (*domain.Quote, error) {
	unlock := s.locks.Lock(quoteID)
	defer unlock()

	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: op, Err: err}
	}
	if err := fn(quote); err != nil {
		return nil, &QuoteServiceError{Op: op, Err: err}
	}
	quote.UpdatedAt = s.now()
	if err := s.quotes.Update(ctx, quote); err != nil {
		return nil, &QuoteServiceError{Op: op, Err: err}
	}
	return quote, nil
}

// loadQuote reads a quote and turns a missing quote into a NotFoundError
func (s *QuoteServiceImpl) loadQuote(ctx context.Context, quoteID string) (*domain.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteNotFound) {
			return nil, &domain.NotFoundError{Resource: "quote", ID: quoteID, Err: err}
		}
		return nil, err
	}
	return quote, nil
}

// normalizeState validates a state, fills missing item ids and recomputes
// the derived subtotals and totals
func (s *QuoteServiceImpl) normalizeState(state domain.PricingState) (domain.PricingState, error) {
	if err := state.Validate(); err != nil {
		return domain.PricingState{}, err
	}

	out := state.Clone()
	for ci := range out.Categories {
		if out.Categories[ci].Items == nil {
			out.Categories[ci].Items = []domain.CategoryItem{}
		}
		for ii := range out.Categories[ci].Items {
			if out.Categories[ci].Items[ii].ID == "" {
				out.Categories[ci].Items[ii].ID = s.newID()
			}
		}
	}
	if out.ParticipantCounts == nil {
		out.ParticipantCounts = domain.ParticipantCounts{}
	}
	if out.SellingPrices == nil {
		out.SellingPrices = domain.SellingPrices{}
	}

	breakdown := pricing.Aggregate(out.Categories, out.ParticipantCounts)
	out.Categories = breakdown.UpdatedCategories
	return out, nil
}

// normalizeTiers validates tiers and assigns ids to new ones
func (s *QuoteServiceImpl) normalizeTiers(tiers []domain.TierPricing) ([]domain.TierPricing, error) {
	if err := pricing.ValidateTiers(tiers); err != nil {
		return nil, err
	}
	out := make([]domain.TierPricing, len(tiers))
	for i, tier := range tiers {
		out[i] = tier.Clone()
		if out[i].ID == "" {
			out[i].ID = s.newID()
		}
		if out[i].SellingPrices == nil {
			out[i].SellingPrices = domain.SellingPrices{}
		}
	}
	return out, nil
}

// acquireWorker blocks until a calculation slot is free
func (s *QuoteServiceImpl) acquireWorker(ctx context.Context) (func(), error) {
	select {
	case s.workerPool <- struct{}{}:
		return func() { <-s.workerPool }, nil
	case <-ctx.Done():
		return nil, &QuoteServiceError{
			Op:  "acquire_worker",
			Err: ctx.Err(),
		}
	}
}
