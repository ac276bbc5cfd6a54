// Package pricing computes quote cost breakdowns and tiered selling prices.
// Every function here is pure: inputs are never mutated.
package pricing

import (
	"regexp"
	"strconv"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// DivisionMode says how a category's cost reaches identities
type DivisionMode int

const (
	// PerHead costs are divided across the headcount of the relevant identities.
	PerHead DivisionMode = iota
	// Shared costs go to the shared bucket and are never divided here.
	Shared
)

// DivisionRule is one row of the fixed division table
type DivisionRule struct {
	Mode DivisionMode
	// ItemIdentity lets an item's Identity field narrow the relevant set.
	ItemIdentity bool
}

// divisionRules is the fixed per-category division table.
//
//	category       mode      relevant identities                     zero-count rule
//	meals          per-head  paying identities                       split over relevant ids with count > 0, else unassigned
//	activities     per-head  paying identities                       same as meals
//	tickets        per-head  item.identity if set, else paying ids   same; targeted id with count 0 -> unassigned
//	accommodation  shared    -                                       never divided
//	guide          shared    -                                       never divided
//	other          shared    -                                       never divided
var divisionRules = map[domain.CategoryID]DivisionRule{
	domain.CategoryMeals:         {Mode: PerHead},
	domain.CategoryActivities:    {Mode: PerHead},
	domain.CategoryTickets:       {Mode: PerHead, ItemIdentity: true},
	domain.CategoryAccommodation: {Mode: Shared},
	domain.CategoryGuide:         {Mode: Shared},
	domain.CategoryOther:         {Mode: Shared},
}

// RuleFor returns the division rule of a category; unknown ids are shared
func RuleFor(id domain.CategoryID) DivisionRule {
	if rule, ok := divisionRules[id]; ok {
		return rule
	}
	return DivisionRule{Mode: Shared}
}

// DefaultRoomType labels accommodation items without a room type
const DefaultRoomType = "標準房"

// AccommodationRoom summarises the nights booked for one room type
type AccommodationRoom struct {
	RoomType     string  `json:"room_type"`
	Nights       int     `json:"nights"`
	TotalCost    float64 `json:"total_cost"`
	PerNightCost float64 `json:"per_night_cost"`
}

// Breakdown is the aggregated cost model of a quote
type Breakdown struct {
	TotalCost            float64                       `json:"total_cost"`
	CategoryTotals       map[domain.CategoryID]float64 `json:"category_totals"`
	IdentityCosts        domain.IdentityAmounts        `json:"identity_costs"`
	SharedCost           float64                       `json:"shared_cost"`
	UnassignedCost       float64                       `json:"unassigned_cost"`
	AccommodationSummary []AccommodationRoom           `json:"accommodation_summary"`
	UpdatedCategories    []domain.Category             `json:"updated_categories"`
}

// Aggregate walks the categories and produces totals, per-identity per-head
// costs, the shared bucket and the accommodation summary.
func Aggregate(categories []domain.Category, counts domain.ParticipantCounts) Breakdown {
	b := Breakdown{
		CategoryTotals:    make(map[domain.CategoryID]float64, len(categories)),
		IdentityCosts:     domain.ZeroAmounts(),
		UpdatedCategories: domain.CloneCategories(categories),
	}
	if b.UpdatedCategories == nil {
		b.UpdatedCategories = []domain.Category{}
	}

	for ci := range b.UpdatedCategories {
		category := &b.UpdatedCategories[ci]
		rule := RuleFor(category.ID)

		var categoryTotal float64
		for ii := range category.Items {
			item := &category.Items[ii]
			cost := item.Cost()
			item.Subtotal = cost
			categoryTotal += cost
			if cost == 0 {
				continue
			}

			if rule.Mode == Shared {
				b.SharedCost += cost
				continue
			}
			relevant := domain.PayingIdentities
			if rule.ItemIdentity && item.Identity != "" {
				relevant = []domain.Identity{item.Identity}
			}
			if !divide(b.IdentityCosts, cost, relevant, counts) {
				b.UnassignedCost += cost
			}
		}
		category.Total = categoryTotal
		b.CategoryTotals[category.ID] += categoryTotal
		b.TotalCost += categoryTotal
	}

	b.AccommodationSummary = summarizeAccommodation(b.UpdatedCategories)
	return b
}

// divide spreads cost over the identities with a non-zero count. Identities
// with count 0 receive nothing; it returns false when nobody can carry the cost.
func divide(into domain.IdentityAmounts, cost float64, relevant []domain.Identity, counts domain.ParticipantCounts) bool {
	heads := 0
	for _, id := range relevant {
		heads += counts[id]
	}
	if heads <= 0 {
		return false
	}
	perHead := cost / float64(heads)
	for _, id := range relevant {
		if counts[id] > 0 {
			into[id] += perHead
		}
	}
	return true
}

var accommodationDayPattern = regexp.MustCompile(`Day\s*(\d+)(?:-\d+)?\s*` + domain.LabelAccommodation)

// AccommodationDay returns the night an accommodation item covers, taken from
// its Day field or from a "Day N 住宿" name. ok is false when neither is set.
func AccommodationDay(item domain.CategoryItem) (int, bool) {
	if item.Day > 0 {
		return item.Day, true
	}
	m := accommodationDayPattern.FindStringSubmatch(item.Name)
	if m == nil {
		return 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day <= 0 {
		return 0, false
	}
	return day, true
}

func summarizeAccommodation(categories []domain.Category) []AccommodationRoom {
	accommodation := domain.FindCategory(categories, domain.CategoryAccommodation)
	if accommodation == nil {
		return []AccommodationRoom{}
	}

	type roomAcc struct {
		days  map[int]bool
		items int
		total float64
	}
	order := []string{}
	rooms := map[string]*roomAcc{}
	for _, item := range accommodation.Items {
		roomType := item.RoomType
		if roomType == "" {
			roomType = DefaultRoomType
		}
		acc, ok := rooms[roomType]
		if !ok {
			acc = &roomAcc{days: map[int]bool{}}
			rooms[roomType] = acc
			order = append(order, roomType)
		}
		acc.items++
		acc.total += item.Cost()
		if day, ok := AccommodationDay(item); ok {
			acc.days[day] = true
		}
	}

	summary := make([]AccommodationRoom, 0, len(order))
	for _, roomType := range order {
		acc := rooms[roomType]
		nights := len(acc.days)
		if nights == 0 {
			nights = acc.items
		}
		room := AccommodationRoom{RoomType: roomType, Nights: nights, TotalCost: acc.total}
		if nights > 0 {
			room.PerNightCost = acc.total / float64(nights)
		}
		summary = append(summary, room)
	}
	return summary
}

// MissingAccommodationNights lists the nights 1..accommodationDays that no
// accommodation item covers, in ascending order.
func MissingAccommodationNights(categories []domain.Category, accommodationDays int) []int {
	covered := map[int]bool{}
	if accommodation := domain.FindCategory(categories, domain.CategoryAccommodation); accommodation != nil {
		for _, item := range accommodation.Items {
			if day, ok := AccommodationDay(item); ok {
				covered[day] = true
			}
		}
	}
	missing := []int{}
	for night := 1; night <= accommodationDays; night++ {
		if !covered[night] {
			missing = append(missing, night)
		}
	}
	return missing
}
