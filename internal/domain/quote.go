package domain

import (
	"time"
)

// CategoryID identifies one of the fixed cost buckets of a quote
type CategoryID string

const (
	CategoryAccommodation CategoryID = "accommodation"
	CategoryMeals         CategoryID = "meals"
	CategoryActivities    CategoryID = "activities"
	CategoryGuide         CategoryID = "guide"
	CategoryTickets       CategoryID = "tickets"
	CategoryOther         CategoryID = "other"
)

// AllCategories lists the categories in the order a new quote shows them
var AllCategories = []CategoryID{
	CategoryAccommodation,
	CategoryMeals,
	CategoryActivities,
	CategoryGuide,
	CategoryTickets,
	CategoryOther,
}

// Valid reports whether the category id belongs to the fixed set
func (c CategoryID) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryItem is a single cost line inside a category.
// Name may embed "Day N <label> - <detail>" which the itinerary sync decodes.
type CategoryItem struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Notes          string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	UnitCost       float64  `json:"unit_cost" yaml:"unit_cost"`
	Quantity       float64  `json:"quantity" yaml:"quantity"`
	IsSelfArranged bool     `json:"is_self_arranged" yaml:"is_self_arranged"`
	Day            int      `json:"day,omitempty" yaml:"day,omitempty"`             // accommodation night
	RoomType       string   `json:"room_type,omitempty" yaml:"room_type,omitempty"` // accommodation only
	Identity       Identity `json:"identity,omitempty" yaml:"identity,omitempty"`   // ticket target
	Subtotal       float64  `json:"subtotal" yaml:"subtotal"`                       // derived
}

// Cost returns the amount the item contributes to totals
func (i CategoryItem) Cost() float64 {
	if i.IsSelfArranged {
		return 0
	}
	return i.UnitCost * i.Quantity
}

// Category is a named bucket of cost line items
type Category struct {
	ID    CategoryID     `json:"id" yaml:"id"`
	Name  string         `json:"name,omitempty" yaml:"name,omitempty"`
	Items []CategoryItem `json:"items" yaml:"items"`
	Total float64        `json:"total" yaml:"total"` // derived
}

// Clone returns a copy that shares no item storage with the receiver
func (c Category) Clone() Category {
	cp := c
	if c.Items != nil {
		cp.Items = make([]CategoryItem, len(c.Items))
		copy(cp.Items, c.Items)
	}
	return cp
}

// FindCategory returns the category with the given id, or nil
func FindCategory(categories []Category, id CategoryID) *Category {
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i]
		}
	}
	return nil
}

// CloneCategories deep-copies a category list
func CloneCategories(categories []Category) []Category {
	if categories == nil {
		return nil
	}
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = c.Clone()
	}
	return out
}

// PricingState is the editable pricing slice of a quote that versions capture
type PricingState struct {
	Categories        []Category        `json:"categories" yaml:"categories"`
	AccommodationDays int               `json:"accommodation_days" yaml:"accommodation_days"`
	ParticipantCounts ParticipantCounts `json:"participant_counts" yaml:"participant_counts"`
	SellingPrices     SellingPrices     `json:"selling_prices" yaml:"selling_prices"`
}

// Clone returns a structural deep copy
func (s PricingState) Clone() PricingState {
	return PricingState{
		Categories:        CloneCategories(s.Categories),
		AccommodationDays: s.AccommodationDays,
		ParticipantCounts: s.ParticipantCounts.Clone(),
		SellingPrices:     s.SellingPrices.Clone(),
	}
}

// Validate checks the state slices that feed the calculators
func (s PricingState) Validate() error {
	if s.AccommodationDays < 0 {
		return &ValidationError{Field: "accommodation_days", Message: "must be >= 0"}
	}
	for _, c := range s.Categories {
		if !c.ID.Valid() {
			return &ValidationError{Field: "categories", Message: "unknown category " + string(c.ID)}
		}
		for _, item := range c.Items {
			if item.Identity != "" && !item.Identity.Valid() {
				return &ValidationError{Field: "categories." + string(c.ID), Message: "unknown identity " + string(item.Identity)}
			}
		}
	}
	if err := s.ParticipantCounts.Validate(); err != nil {
		return err
	}
	return s.SellingPrices.Validate()
}

// TierPricing is an alternative headcount scenario with its own selling prices.
// LocalUnitPrice is a local-agent price per head added to every paying identity.
type TierPricing struct {
	ID               string        `json:"id" yaml:"id"`
	ParticipantCount int           `json:"participant_count" yaml:"participant_count"`
	SellingPrices    SellingPrices `json:"selling_prices" yaml:"selling_prices"`
	LocalUnitPrice   float64       `json:"local_unit_price,omitempty" yaml:"local_unit_price,omitempty"`
}

// Clone returns an independent copy
func (t TierPricing) Clone() TierPricing {
	t.SellingPrices = t.SellingPrices.Clone()
	return t
}

// VersionRecord is an immutable named snapshot of a quote's pricing state
type VersionRecord struct {
	ID        string       `json:"id"`
	Version   int          `json:"version"`
	Name      string       `json:"name"`
	Note      string       `json:"note,omitempty"`
	SavedAt   time.Time    `json:"saved_at"`
	TotalCost float64      `json:"total_cost"`
	State     PricingState `json:"state"`
}

// Clone returns a copy whose state shares nothing with the receiver
func (v VersionRecord) Clone() VersionRecord {
	v.State = v.State.Clone()
	return v
}

// PrimaryVersion is the marker for the non-versioned primary state
const PrimaryVersion = -1

// Quote is the aggregate the service reads and writes through the quote store
type Quote struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ItineraryID *string `json:"itinerary_id,omitempty"`

	// State is the live editing state.
	State PricingState `json:"state"`
	// Primary holds the primary state while a version is loaded into State.
	Primary *PricingState `json:"primary,omitempty"`

	Versions       []VersionRecord `json:"versions"`
	CurrentVersion int             `json:"current_version"`

	// LastVersionNumber is the highest version number ever issued.
	LastVersionNumber int `json:"last_version_number"`

	TierPricings []TierPricing `json:"tier_pricings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewQuote builds an empty quote with every category present
func NewQuote(id, name string) *Quote {
	categories := make([]Category, 0, len(AllCategories))
	for _, c := range AllCategories {
		categories = append(categories, Category{ID: c, Items: []CategoryItem{}})
	}
	now := time.Now()
	return &Quote{
		ID:   id,
		Name: name,
		State: PricingState{
			Categories:        categories,
			ParticipantCounts: ParticipantCounts{},
			SellingPrices:     SellingPrices{},
		},
		Versions:       []VersionRecord{},
		CurrentVersion: PrimaryVersion,
		TierPricings:   []TierPricing{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy so repositories never hand out shared state
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}
	cp := *q
	if q.ItineraryID != nil {
		id := *q.ItineraryID
		cp.ItineraryID = &id
	}
	cp.State = q.State.Clone()
	if q.Primary != nil {
		p := q.Primary.Clone()
		cp.Primary = &p
	}
	cp.Versions = make([]VersionRecord, len(q.Versions))
	for i, v := range q.Versions {
		cp.Versions[i] = v.Clone()
	}
	cp.TierPricings = make([]TierPricing, len(q.TierPricings))
	for i, t := range q.TierPricings {
		cp.TierPricings[i] = t.Clone()
	}
	return &cp
}

// LinkedItinerary returns the linked itinerary id, or "" when unlinked
func (q *Quote) LinkedItinerary() string {
	if q == nil || q.ItineraryID == nil {
		return ""
	}
	return *q.ItineraryID
}
