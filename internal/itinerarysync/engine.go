package itinerarysync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// Phase is a step of one meal sync run
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseExtracting
	PhaseComparing
	PhaseAwaitingConfirmation
	PhaseApplying
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseExtracting:
		return "extracting"
	case PhaseComparing:
		return "comparing"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	case PhaseApplying:
		return "applying"
	case PhaseAborted:
		return "aborted"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Status is the outcome of a preview
type Status string

const (
	StatusReady Status = "ready"
	StatusNoOp  Status = "noop"
)

// Logger receives diagnostic lines; log.Printf fits
type Logger func(format string, args ...any)

// ItineraryStore is the itinerary persistence the engine needs. A missing
// itinerary is reported with an error wrapping domain.ErrItineraryNotFound.
type ItineraryStore interface {
	GetByID(ctx context.Context, id string) (*domain.Itinerary, error)
	UpdateDays(ctx context.Context, id string, days []domain.DayRecord) error
}

// MealEntry is the quote side of one lunch or dinner slot
type MealEntry struct {
	Name         string
	SelfArranged bool
}

// Value is what the itinerary should show for the slot
func (e MealEntry) Value() string {
	if e.SelfArranged {
		return domain.LabelSelfArranged
	}
	return e.Name
}

// DayMeals holds the lunch and dinner entries extracted for one day
type DayMeals struct {
	Lunch  *MealEntry
	Dinner *MealEntry
}

// MealPlan is keyed by 1-based day number
type MealPlan map[int]DayMeals

// Extract reads the meals category into a plan. Names that do not decode are
// skipped and reported through logf; breakfast items are decoded but not
// synced. A later item for the same slot replaces an earlier one.
func Extract(categories []domain.Category, logf Logger) MealPlan {
	plan := MealPlan{}
	meals := domain.FindCategory(categories, domain.CategoryMeals)
	if meals == nil {
		return plan
	}
	for _, item := range meals.Items {
		decoded, ok := DecodeMealName(item.Name)
		if !ok {
			if logf != nil {
				logf("itinerary sync: skipping meal item %q: name is not in \"Day N 午餐/晚餐 - detail\" form", item.Name)
			}
			continue
		}
		entry := &MealEntry{Name: decoded.Detail, SelfArranged: item.IsSelfArranged}
		day := plan[decoded.Day]
		switch decoded.Type {
		case domain.MealLunch:
			day.Lunch = entry
		case domain.MealDinner:
			day.Dinner = entry
		default:
			continue
		}
		plan[decoded.Day] = day
	}
	return plan
}

// Compare lists the slots whose quote value differs from the itinerary.
// Empty quote values never produce a diff. Diffs are ordered by day, lunch
// before dinner. Plan days beyond the itinerary are ignored.
func Compare(plan MealPlan, days []domain.DayRecord) []domain.MealDiff {
	diffs := []domain.MealDiff{}
	for i, record := range days {
		dayNumber := i + 1
		meals, ok := plan[dayNumber]
		if !ok {
			continue
		}
		for _, slot := range []struct {
			t     domain.MealType
			entry *MealEntry
		}{
			{domain.MealLunch, meals.Lunch},
			{domain.MealDinner, meals.Dinner},
		} {
			if slot.entry == nil {
				continue
			}
			newValue := slot.entry.Value()
			oldValue := record.Meals.Get(slot.t)
			if newValue == "" || newValue == oldValue {
				continue
			}
			diffs = append(diffs, domain.MealDiff{
				Day:       dayNumber,
				Type:      slot.t,
				TypeLabel: slot.t.Label(),
				OldValue:  oldValue,
				NewValue:  newValue,
			})
		}
	}
	return diffs
}

// ValidateDiffs checks that every diff targets lunch or dinner of an existing day
func ValidateDiffs(days []domain.DayRecord, diffs []domain.MealDiff) error {
	for i, d := range diffs {
		if d.Type != domain.MealLunch && d.Type != domain.MealDinner {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("diffs[%d].type", i),
				Message: fmt.Sprintf("unsupported meal type %q", d.Type),
				Err:     domain.ErrInvalidMealDiff,
			}
		}
		if d.Day < 1 || d.Day > len(days) {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("diffs[%d].day", i),
				Message: fmt.Sprintf("day %d is outside the itinerary (1..%d)", d.Day, len(days)),
				Err:     domain.ErrInvalidMealDiff,
			}
		}
	}
	return nil
}

// ApplyDiffs returns a copy of days with the diffs written into the meal
// slots. Diffs with an empty new value are skipped. Nothing besides the
// targeted slots changes. Invalid diffs fail the whole call.
func ApplyDiffs(days []domain.DayRecord, diffs []domain.MealDiff) ([]domain.DayRecord, int, error) {
	if err := ValidateDiffs(days, diffs); err != nil {
		return nil, 0, err
	}
	out := domain.CloneDays(days)
	applied := 0
	for _, d := range diffs {
		if d.NewValue == "" {
			continue
		}
		meals := &out[d.Day-1].Meals
		switch d.Type {
		case domain.MealLunch:
			meals.Lunch = d.NewValue
		case domain.MealDinner:
			meals.Dinner = d.NewValue
		}
		applied++
	}
	return out, applied, nil
}

// Preview is the confirmation payload of a sync run
type Preview struct {
	Status         Status            `json:"status"`
	Phase          string            `json:"phase"`
	Message        string            `json:"message,omitempty"`
	ItineraryID    string            `json:"itinerary_id"`
	ItineraryTitle string            `json:"itinerary_title"`
	Diffs          []domain.MealDiff `json:"diffs"`
}

// ApplyResult reports a committed sync
type ApplyResult struct {
	ItineraryID string `json:"itinerary_id"`
	Applied     int    `json:"applied"`
}

// Engine runs meal sync against an itinerary store
type Engine struct {
	itineraries ItineraryStore
	logf        Logger
	onPhase     func(Phase)
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger replaces the default log.Printf logger
func WithLogger(logf Logger) EngineOption {
	return func(e *Engine) { e.logf = logf }
}

// WithPhaseHook is called on every phase transition
func WithPhaseHook(hook func(Phase)) EngineOption {
	return func(e *Engine) { e.onPhase = hook }
}

// NewEngine creates a sync engine
func NewEngine(itineraries ItineraryStore, opts ...EngineOption) *Engine {
	e := &Engine{itineraries: itineraries, logf: log.Printf}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) enter(p Phase) {
	if e.onPhase != nil {
		e.onPhase(p)
	}
}

// LinkedItinerary resolves the itinerary a quote links to, with the
// user-facing not-found messages for a missing link and a broken link.
func LinkedItinerary(ctx context.Context, store ItineraryStore, quote *domain.Quote) (*domain.Itinerary, error) {
	id := quote.LinkedItinerary()
	if id == "" {
		return nil, &domain.NotFoundError{
			Resource: "itinerary link",
			ID:       quote.ID,
			Message:  domain.MsgNoLinkedItinerary,
			Err:      domain.ErrNoLinkedItinerary,
		}
	}
	itinerary, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrItineraryNotFound) {
			return nil, &domain.NotFoundError{
				Resource: "itinerary",
				ID:       id,
				Message:  domain.MsgItineraryNotFound,
				Err:      domain.ErrItineraryNotFound,
			}
		}
		return nil, fmt.Errorf("load itinerary %s: %w", id, err)
	}
	return itinerary, nil
}

// Preview extracts the quote's meals and diffs them against the linked
// itinerary. Nothing is written.
func (e *Engine) Preview(ctx context.Context, quote *domain.Quote) (*Preview, error) {
	itinerary, err := LinkedItinerary(ctx, e.itineraries, quote)
	if err != nil {
		e.enter(PhaseAborted)
		return nil, err
	}

	preview := &Preview{
		ItineraryID:    itinerary.ID,
		ItineraryTitle: itinerary.DisplayTitle(),
		Diffs:          []domain.MealDiff{},
	}

	e.enter(PhaseExtracting)
	meals := domain.FindCategory(quote.State.Categories, domain.CategoryMeals)
	if meals == nil || len(meals.Items) == 0 {
		return e.noop(preview), nil
	}
	plan := Extract(quote.State.Categories, e.logf)

	e.enter(PhaseComparing)
	preview.Diffs = Compare(plan, itinerary.DailyItinerary)
	if len(preview.Diffs) == 0 {
		return e.noop(preview), nil
	}

	e.enter(PhaseAwaitingConfirmation)
	preview.Status = StatusReady
	preview.Phase = PhaseAwaitingConfirmation.String()
	return preview, nil
}

func (e *Engine) noop(p *Preview) *Preview {
	e.enter(PhaseIdle)
	p.Status = StatusNoOp
	p.Phase = PhaseIdle.String()
	p.Message = domain.MsgNothingToSync
	return p
}

// Apply writes the confirmed diffs into the linked itinerary with a single
// UpdateDays call. Invalid diffs abort the run before anything is written.
func (e *Engine) Apply(ctx context.Context, quote *domain.Quote, diffs []domain.MealDiff) (*ApplyResult, error) {
	itinerary, err := LinkedItinerary(ctx, e.itineraries, quote)
	if err != nil {
		e.enter(PhaseAborted)
		return nil, err
	}

	days, applied, err := ApplyDiffs(itinerary.DailyItinerary, diffs)
	if err != nil {
		e.enter(PhaseAborted)
		return nil, err
	}

	e.enter(PhaseApplying)
	if applied > 0 {
		if err := e.itineraries.UpdateDays(ctx, itinerary.ID, days); err != nil {
			e.enter(PhaseAborted)
			return nil, fmt.Errorf("write itinerary %s: %w", itinerary.ID, err)
		}
	}
	e.enter(PhaseIdle)
	return &ApplyResult{ItineraryID: itinerary.ID, Applied: applied}, nil
}
