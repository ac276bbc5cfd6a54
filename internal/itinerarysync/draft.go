package itinerarysync

import (
	"fmt"
	"time"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/pricing"
)

// DefaultDraftDays is used when the quote has no accommodation days
const DefaultDraftDays = 5

// MaxDraftDays bounds the length of a drafted itinerary
const MaxDraftDays = 60

// DraftMeal is a meal taken from the quote for a new itinerary
type DraftMeal struct {
	Day         int             `json:"day"`
	Type        domain.MealType `json:"type"`
	Name        string          `json:"name"`
	Note        string          `json:"note,omitempty"`
	DayInferred bool            `json:"day_inferred,omitempty"`
}

// DraftHotel is an accommodation taken from the quote
type DraftHotel struct {
	Day         int    `json:"day"`
	Name        string `json:"name"`
	Note        string `json:"note,omitempty"`
	DayInferred bool   `json:"day_inferred,omitempty"`
}

// DraftActivity is an activity taken from the quote
type DraftActivity struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DayInferred bool   `json:"day_inferred,omitempty"`
}

// Draft is the seed for creating an itinerary from a quote
type Draft struct {
	QuoteID    string          `json:"quote_id"`
	QuoteName  string          `json:"quote_name"`
	Days       int             `json:"days"`
	Meals      []DraftMeal     `json:"meals"`
	Hotels     []DraftHotel    `json:"hotels"`
	Activities []DraftActivity `json:"activities"`
}

// BuildItineraryDraft extracts meals, hotels and activities from the quote's
// live state. Items whose names carry no day are placed on day 1 and flagged
// with DayInferred; each such item is logged. Items dated after the last
// draft day are logged and left out.
func BuildItineraryDraft(quote *domain.Quote, logf Logger) Draft {
	state := quote.State
	draft := Draft{
		QuoteID:    quote.ID,
		QuoteName:  quote.Name,
		Days:       DefaultDraftDays,
		Meals:      []DraftMeal{},
		Hotels:     []DraftHotel{},
		Activities: []DraftActivity{},
	}
	if state.AccommodationDays > 0 {
		draft.Days = min(state.AccommodationDays+1, MaxDraftDays)
	}
	logDraft := func(format string, args ...any) {
		if logf != nil {
			logf(format, args...)
		}
	}
	inferred := func(category domain.CategoryID, name string) {
		logDraft("itinerary draft: %s item %q has no day, placing it on day 1", category, name)
	}
	outside := func(category domain.CategoryID, name string, day int) bool {
		if day <= draft.Days {
			return false
		}
		logDraft("itinerary draft: %s item %q is on day %d past the %d-day draft, skipping", category, name, day, draft.Days)
		return true
	}

	if meals := domain.FindCategory(state.Categories, domain.CategoryMeals); meals != nil {
		for _, item := range meals.Items {
			if decoded, ok := DecodeMealName(item.Name); ok {
				if outside(domain.CategoryMeals, item.Name, decoded.Day) {
					continue
				}
				name := decoded.Detail
				if name == "" {
					name = item.Description
				}
				draft.Meals = append(draft.Meals, DraftMeal{Day: decoded.Day, Type: decoded.Type, Name: name, Note: item.Notes})
				continue
			}
			inferred(domain.CategoryMeals, item.Name)
			draft.Meals = append(draft.Meals, DraftMeal{
				Day:         1,
				Type:        domain.MealLunch,
				Name:        firstNonEmpty(item.Name, item.Description),
				Note:        item.Notes,
				DayInferred: true,
			})
		}
	}

	if accommodation := domain.FindCategory(state.Categories, domain.CategoryAccommodation); accommodation != nil {
		for _, item := range accommodation.Items {
			hotel := DraftHotel{Name: firstNonEmpty(item.Description, HotelName(item.Name)), Note: item.Notes}
			if day, ok := pricing.AccommodationDay(item); ok {
				if outside(domain.CategoryAccommodation, item.Name, day) {
					continue
				}
				hotel.Day = day
			} else {
				inferred(domain.CategoryAccommodation, item.Name)
				hotel.Day = 1
				hotel.DayInferred = true
			}
			draft.Hotels = append(draft.Hotels, hotel)
		}
	}

	if activities := domain.FindCategory(state.Categories, domain.CategoryActivities); activities != nil {
		for _, item := range activities.Items {
			description := firstNonEmpty(item.Description, item.Notes)
			if day, title, ok := DecodeActivityName(item.Name); ok {
				if outside(domain.CategoryActivities, item.Name, day) {
					continue
				}
				draft.Activities = append(draft.Activities, DraftActivity{Day: day, Title: title, Description: description})
				continue
			}
			inferred(domain.CategoryActivities, item.Name)
			draft.Activities = append(draft.Activities, DraftActivity{
				Day:         1,
				Title:       item.Name,
				Description: description,
				DayInferred: true,
			})
		}
	}
	return draft
}

// Itinerary lays the draft out as a day list of Days entries, at most
// MaxDraftDays. Entries outside the list are dropped.
func (d Draft) Itinerary(id string, now time.Time) *domain.Itinerary {
	days := min(max(d.Days, 1), MaxDraftDays)
	inRange := func(day int) bool { return day >= 1 && day <= days }

	records := make([]domain.DayRecord, days)
	for i := range records {
		records[i].DayLabel = fmt.Sprintf("Day %d", i+1)
	}
	for _, m := range d.Meals {
		if !inRange(m.Day) {
			continue
		}
		meals := &records[m.Day-1].Meals
		switch m.Type {
		case domain.MealBreakfast:
			meals.Breakfast = m.Name
		case domain.MealLunch:
			meals.Lunch = m.Name
		case domain.MealDinner:
			meals.Dinner = m.Name
		}
	}
	for _, h := range d.Hotels {
		if inRange(h.Day) {
			records[h.Day-1].Accommodation = h.Name
		}
	}
	for _, a := range d.Activities {
		if inRange(a.Day) {
			records[a.Day-1].Activities = append(records[a.Day-1].Activities, domain.Activity{Title: a.Title, Description: a.Description})
		}
	}

	return &domain.Itinerary{
		ID:             id,
		Title:          d.QuoteName,
		DailyItinerary: records,
		UpdatedAt:      now,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
