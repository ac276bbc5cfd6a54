package itinerarysync

import (
	"strings"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// ItineraryMeal is a meal listed in an itinerary day
type ItineraryMeal struct {
	Day  int             `json:"day"`
	Type domain.MealType `json:"type"`
	Name string          `json:"name"`
}

// ItineraryActivity is an activity listed in an itinerary day
type ItineraryActivity struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ItineraryMeals lists every non-empty meal of the itinerary in day order,
// leaving out self-arranged ones.
func ItineraryMeals(itinerary *domain.Itinerary) []ItineraryMeal {
	meals := []ItineraryMeal{}
	for i, day := range itinerary.DailyItinerary {
		for _, t := range []domain.MealType{domain.MealBreakfast, domain.MealLunch, domain.MealDinner} {
			name := day.Meals.Get(t)
			if name == "" || strings.Contains(name, domain.LabelSelfArranged) {
				continue
			}
			meals = append(meals, ItineraryMeal{Day: i + 1, Type: t, Name: name})
		}
	}
	return meals
}

// ItineraryActivities lists every activity of the itinerary in day order
func ItineraryActivities(itinerary *domain.Itinerary) []ItineraryActivity {
	activities := []ItineraryActivity{}
	for i, day := range itinerary.DailyItinerary {
		for _, a := range day.Activities {
			activities = append(activities, ItineraryActivity{Day: i + 1, Title: a.Title, Description: a.Description})
		}
	}
	return activities
}

// ImportMeals appends the meals to the meals category as zero-cost items named
// so that meal sync can decode them again. The returned state is a copy.
func ImportMeals(state domain.PricingState, meals []ItineraryMeal, newID func() string) domain.PricingState {
	out := state.Clone()
	category := ensureCategory(&out, domain.CategoryMeals)
	for _, m := range meals {
		category.Items = append(category.Items, domain.CategoryItem{
			ID:       newID(),
			Name:     MealItemName(m.Day, m.Type, m.Name),
			Quantity: 1,
		})
	}
	return out
}

// ImportActivities appends the activities to the activities category
func ImportActivities(state domain.PricingState, activities []ItineraryActivity, newID func() string) domain.PricingState {
	out := state.Clone()
	category := ensureCategory(&out, domain.CategoryActivities)
	for _, a := range activities {
		category.Items = append(category.Items, domain.CategoryItem{
			ID:          newID(),
			Name:        ActivityItemName(a.Day, a.Title),
			Description: a.Description,
			Quantity:    1,
		})
	}
	return out
}

func ensureCategory(state *domain.PricingState, id domain.CategoryID) *domain.Category {
	if c := domain.FindCategory(state.Categories, id); c != nil {
		return c
	}
	state.Categories = append(state.Categories, domain.Category{ID: id, Items: []domain.CategoryItem{}})
	return &state.Categories[len(state.Categories)-1]
}
