// Package itinerarysync reconciles a quote's cost items with the day-by-day
// itinerary it is linked to. Item names follow the "Day N <label> - <detail>"
// convention; this package is the only place that convention is parsed.
package itinerarysync

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

var (
	mealNamePattern          = regexp.MustCompile(`Day\s*(\d+)\s*(` + domain.LabelBreakfast + `|` + domain.LabelLunch + `|` + domain.LabelDinner + `)\s*-?\s*(.*)`)
	activityNamePattern      = regexp.MustCompile(`Day\s*(\d+)\s*-?\s*(.*)`)
	accommodationNamePattern = regexp.MustCompile(`Day\s*(\d+)(?:-\d+)?\s*` + domain.LabelAccommodation + `\s*-?\s*`)
)

// DecodedMeal is the structured form of a meal item name
type DecodedMeal struct {
	Day    int
	Type   domain.MealType
	Detail string
}

// DecodeMealName parses "Day N 午餐 - detail". ok is false when the name does
// not follow the convention.
func DecodeMealName(name string) (DecodedMeal, bool) {
	m := mealNamePattern.FindStringSubmatch(name)
	if m == nil {
		return DecodedMeal{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day <= 0 {
		return DecodedMeal{}, false
	}
	return DecodedMeal{
		Day:    day,
		Type:   mealTypeFromLabel(m[2]),
		Detail: strings.TrimSpace(m[3]),
	}, true
}

func mealTypeFromLabel(label string) domain.MealType {
	switch label {
	case domain.LabelBreakfast:
		return domain.MealBreakfast
	case domain.LabelLunch:
		return domain.MealLunch
	default:
		return domain.MealDinner
	}
}

// DecodeActivityName parses "Day N - title"
func DecodeActivityName(name string) (day int, title string, ok bool) {
	m := activityNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day <= 0 {
		return 0, "", false
	}
	return day, strings.TrimSpace(m[2]), true
}

// HotelName strips a leading "Day N 住宿 - " marker from an accommodation name
func HotelName(name string) string {
	return strings.TrimSpace(accommodationNamePattern.ReplaceAllString(name, ""))
}

// MealItemName builds a name DecodeMealName understands
func MealItemName(day int, t domain.MealType, detail string) string {
	return fmt.Sprintf("Day %d %s - %s", day, t.Label(), detail)
}

// ActivityItemName builds a name DecodeActivityName understands
func ActivityItemName(day int, title string) string {
	return fmt.Sprintf("Day %d - %s", day, title)
}
