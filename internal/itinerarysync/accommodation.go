package itinerarysync

import (
	"fmt"
	"sort"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/pricing"
)

// AccommodationStatus is the outcome of pulling hotels from an itinerary
type AccommodationStatus string

const (
	AccommodationNoData   AccommodationStatus = "no_data"
	AccommodationUpToDate AccommodationStatus = "up_to_date"
	AccommodationUpdated  AccommodationStatus = "updated"
)

// AccommodationResult reports what SyncAccommodationFromItinerary changed
type AccommodationResult struct {
	Status            AccommodationStatus `json:"status"`
	Message           string              `json:"message"`
	Hotels            int                 `json:"hotels"`
	Changed           int                 `json:"changed"`
	AccommodationDays int                 `json:"accommodation_days"`
}

type dayHotel struct {
	day  int
	name string
}

// AccommodationItemName builds the "Day N 住宿 - hotel" item name
func AccommodationItemName(day int, hotel string) string {
	return fmt.Sprintf("Day %d %s - %s", day, domain.LabelAccommodation, hotel)
}

// SyncAccommodationFromItinerary pulls the hotel of every itinerary day into
// the accommodation category. Existing items for a night are renamed when the
// hotel differs; nights without an item get a zero-cost placeholder; items
// that carry no night are kept after the nightly ones. accommodation_days is
// extended to cover the last hotel night. The returned state is a copy.
func SyncAccommodationFromItinerary(state domain.PricingState, itinerary *domain.Itinerary, newID func() string) (domain.PricingState, AccommodationResult) {
	out := state.Clone()
	result := AccommodationResult{AccommodationDays: out.AccommodationDays}

	var hotels []dayHotel
	for i, day := range itinerary.DailyItinerary {
		if day.Accommodation != "" {
			hotels = append(hotels, dayHotel{day: i + 1, name: day.Accommodation})
		}
	}
	result.Hotels = len(hotels)
	if len(hotels) == 0 {
		result.Status = AccommodationNoData
		result.Message = domain.MsgNoAccommodationData
		return state.Clone(), result
	}

	accommodation := ensureCategory(&out, domain.CategoryAccommodation)

	maxDay := out.AccommodationDays
	hotelByDay := make(map[int]string, len(hotels))
	for _, h := range hotels {
		hotelByDay[h.day] = h.name
		if h.day > maxDay {
			maxDay = h.day
		}
	}

	byDay := map[int]domain.CategoryItem{}
	var undated []domain.CategoryItem
	for _, item := range accommodation.Items {
		day, ok := pricing.AccommodationDay(item)
		if !ok {
			undated = append(undated, item)
			continue
		}
		if _, seen := byDay[day]; seen {
			undated = append(undated, item)
			continue
		}
		byDay[day] = item
	}

	items := make([]domain.CategoryItem, 0, len(accommodation.Items)+len(hotels))
	for day := 1; day <= maxDay; day++ {
		hotel, hasHotel := hotelByDay[day]
		existing, hasItem := byDay[day]
		switch {
		case hasItem && hasHotel && HotelName(existing.Name) != hotel:
			existing.Name = AccommodationItemName(day, hotel)
			existing.Day = day
			items = append(items, existing)
			result.Changed++
		case hasItem:
			items = append(items, existing)
		case hasHotel:
			items = append(items, domain.CategoryItem{
				ID:   newID(),
				Name: AccommodationItemName(day, hotel),
				Day:  day,
			})
			result.Changed++
		}
	}
	var later []int
	for day := range byDay {
		if day > maxDay {
			later = append(later, day)
		}
	}
	sort.Ints(later)
	for _, day := range later {
		items = append(items, byDay[day])
	}
	items = append(items, undated...)

	if result.Changed == 0 {
		result.Status = AccommodationUpToDate
		result.Message = domain.MsgAccommodationUpToDate
		return state.Clone(), result
	}

	accommodation.Items = items
	if maxDay > out.AccommodationDays {
		out.AccommodationDays = maxDay
	}
	result.Status = AccommodationUpdated
	result.Message = fmt.Sprintf(domain.MsgAccommodationSynced, len(hotels))
	result.AccommodationDays = out.AccommodationDays
	return out, result
}
