package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/itinerarysync"
)

// Sync kinds used as metric labels
const (
	syncKindMealsPreview  = "meals_preview"
	syncKindMealsApply    = "meals_apply"
	syncKindAccommodation = "accommodation"
	syncKindImport        = "import"
)

// itineraryLockKey keys the itinerary lock apart from quote ids
func itineraryLockKey(itineraryID string) string {
	return "itinerary:" + itineraryID
}

// ImportResult reports how many itinerary entries were appended to a quote
type ImportResult struct {
	Imported int           `json:"imported"`
	Quote    *domain.Quote `json:"quote"`
}

// PreviewMealSync diffs the quote's meals against the linked itinerary
func (s *QuoteServiceImpl) PreviewMealSync(ctx context.Context, quoteID string) (*itinerarysync.Preview, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "preview_meal_sync", Err: err}
	}

	preview, err := s.engine.Preview(ctx, quote)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues(syncKindMealsPreview, "aborted").Inc()
		return nil, &QuoteServiceError{Op: "preview_meal_sync", Err: err}
	}
	s.metrics.SyncRuns.WithLabelValues(syncKindMealsPreview, string(preview.Status)).Inc()
	s.metrics.SyncDiffs.Observe(float64(len(preview.Diffs)))
	return preview, nil
}

// ApplyMealSync writes confirmed diffs into the linked itinerary. The
// itinerary is locked as well, since several quotes may link to it.
func (s *QuoteServiceImpl) ApplyMealSync(ctx context.Context, quoteID string, diffs []domain.MealDiff) (*itinerarysync.ApplyResult, error) {
	unlock := s.locks.Lock(quoteID)
	defer unlock()

	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "apply_meal_sync", Err: err}
	}
	if itineraryID := quote.LinkedItinerary(); itineraryID != "" {
		unlockItinerary := s.locks.Lock(itineraryLockKey(itineraryID))
		defer unlockItinerary()
	}

	result, err := s.engine.Apply(ctx, quote, diffs)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues(syncKindMealsApply, "aborted").Inc()
		return nil, &QuoteServiceError{Op: "apply_meal_sync", Err: err}
	}
	s.metrics.SyncRuns.WithLabelValues(syncKindMealsApply, "applied").Inc()
	log.Printf("Applied %d meal changes from quote %s to itinerary %s", result.Applied, quoteID, result.ItineraryID)
	return result, nil
}

// SyncAccommodation pulls the hotels of the linked itinerary into the
// quote's accommodation category
func (s *QuoteServiceImpl) SyncAccommodation(ctx context.Context, quoteID string) (*itinerarysync.AccommodationResult, error) {
	unlock := s.locks.Lock(quoteID)
	defer unlock()

	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "sync_accommodation", Err: err}
	}
	itinerary, err := itinerarysync.LinkedItinerary(ctx, s.itineraries, quote)
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues(syncKindAccommodation, "aborted").Inc()
		return nil, &QuoteServiceError{Op: "sync_accommodation", Err: err}
	}

	state, result := itinerarysync.SyncAccommodationFromItinerary(quote.State, itinerary, s.newID)
	s.metrics.SyncRuns.WithLabelValues(syncKindAccommodation, string(result.Status)).Inc()
	if result.Status != itinerarysync.AccommodationUpdated {
		return &result, nil
	}

	quote.State, err = s.normalizeState(state)
	if err != nil {
		return nil, &QuoteServiceError{Op: "sync_accommodation", Err: err}
	}
	quote.UpdatedAt = s.now()
	if err := s.quotes.Update(ctx, quote); err != nil {
		return nil, &QuoteServiceError{Op: "sync_accommodation", Err: err}
	}
	log.Printf("Synced %d accommodation nights from itinerary %s into quote %s", result.Changed, itinerary.ID, quoteID)
	return &result, nil
}

// BuildItineraryDraft extracts the meals, hotels and activities of a quote
// laid out per day
func (s *QuoteServiceImpl) BuildItineraryDraft(ctx context.Context, quoteID string) (*itinerarysync.Draft, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "build_itinerary_draft", Err: err}
	}
	draft := itinerarysync.BuildItineraryDraft(quote, log.Printf)
	return &draft, nil
}

// CreateItineraryFromQuote stores the quote's draft as a new itinerary and
// links the quote to it
func (s *QuoteServiceImpl) CreateItineraryFromQuote(ctx context.Context, quoteID string) (*domain.Itinerary, error) {
	unlock := s.locks.Lock(quoteID)
	defer unlock()

	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "create_itinerary_from_quote", Err: err}
	}

	draft := itinerarysync.BuildItineraryDraft(quote, log.Printf)
	itinerary := draft.Itinerary(s.newID(), s.now())
	if err := s.itineraries.Create(ctx, itinerary); err != nil {
		return nil, &QuoteServiceError{Op: "create_itinerary_from_quote", Err: err}
	}

	id := itinerary.ID
	quote.ItineraryID = &id
	quote.UpdatedAt = s.now()
	if err := s.quotes.Update(ctx, quote); err != nil {
		if delErr := s.itineraries.Delete(context.WithoutCancel(ctx), id); delErr != nil {
			log.Printf("Warning: itinerary %s created for quote %s is left unlinked: %v", id, quoteID, delErr)
		}
		return nil, &QuoteServiceError{Op: "link_itinerary", Err: err}
	}
	log.Printf("Created itinerary %s from quote %s with %d days", itinerary.ID, quoteID, len(itinerary.DailyItinerary))
	return itinerary, nil
}

// ImportItineraryMeals appends the linked itinerary's meals to the quote
func (s *QuoteServiceImpl) ImportItineraryMeals(ctx context.Context, quoteID string) (*ImportResult, error) {
	return s.importFromItinerary(ctx, quoteID, "import_itinerary_meals", func(state domain.PricingState, itinerary *domain.Itinerary) (domain.PricingState, int) {
		meals := itinerarysync.ItineraryMeals(itinerary)
		return itinerarysync.ImportMeals(state, meals, s.newID), len(meals)
	})
}

// ImportItineraryActivities appends the linked itinerary's activities to the quote
func (s *QuoteServiceImpl) ImportItineraryActivities(ctx context.Context, quoteID string) (*ImportResult, error) {
	return s.importFromItinerary(ctx, quoteID, "import_itinerary_activities", func(state domain.PricingState, itinerary *domain.Itinerary) (domain.PricingState, int) {
		activities := itinerarysync.ItineraryActivities(itinerary)
		return itinerarysync.ImportActivities(state, activities, s.newID), len(activities)
	})
}

func (s *QuoteServiceImpl) importFromItinerary(ctx context.Context, quoteID, op string, merge func(domain.PricingState, *domain.Itinerary) (domain.PricingState, int)) (*ImportResult, error) {
	result := &ImportResult{}
	quote, err := s.mutate(ctx, quoteID, op, func(quote *domain.Quote) error {
		itinerary, err := itinerarysync.LinkedItinerary(ctx, s.itineraries, quote)
		if err != nil {
			return err
		}
		state, imported := merge(quote.State, itinerary)
		normalized, err := s.normalizeState(state)
		if err != nil {
			return err
		}
		quote.State = normalized
		result.Imported = imported
		return nil
	})
	s.metrics.SyncRuns.WithLabelValues(syncKindImport, outcomeLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	result.Quote = quote
	return result, nil
}

// CreateItinerary stores a new itinerary
func (s *QuoteServiceImpl) CreateItinerary(ctx context.Context, itinerary *domain.Itinerary) (*domain.Itinerary, error) {
	if itinerary == nil {
		return nil, &QuoteServiceError{
			Op:  "validate_itinerary",
			Err: &domain.ValidationError{Field: "itinerary", Message: "is required"},
		}
	}
	if strings.TrimSpace(itinerary.Title) == "" && strings.TrimSpace(itinerary.Tagline) == "" {
		return nil, &QuoteServiceError{
			Op:  "validate_itinerary",
			Err: &domain.ValidationError{Field: "title", Message: "is required"},
		}
	}

	out := *itinerary
	out.DailyItinerary = domain.CloneDays(itinerary.DailyItinerary)
	if out.DailyItinerary == nil {
		out.DailyItinerary = []domain.DayRecord{}
	}
	if out.ID == "" {
		out.ID = s.newID()
	}
	out.UpdatedAt = s.now()

	if err := s.itineraries.Create(ctx, &out); err != nil {
		return nil, &QuoteServiceError{Op: "create_itinerary", Err: err}
	}
	return &out, nil
}

// GetItinerary retrieves an itinerary by its ID
func (s *QuoteServiceImpl) GetItinerary(ctx context.Context, itineraryID string) (*domain.Itinerary, error) {
	itinerary, err := s.itineraries.GetByID(ctx, itineraryID)
	if err != nil {
		if errors.Is(err, domain.ErrItineraryNotFound) {
			err = &domain.NotFoundError{Resource: "itinerary", ID: itineraryID, Err: err}
		}
		return nil, &QuoteServiceError{Op: "get_itinerary", Err: err}
	}
	return itinerary, nil
}

func outcomeLabel(err error) string {
	if err != nil {
		return "aborted"
	}
	return "applied"
}
