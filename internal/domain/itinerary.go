package domain

import (
	"encoding/json"
	"time"
)

// MealType is a meal slot in an itinerary day
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// Labels used inside quote item names and itinerary text
const (
	LabelBreakfast     = "早餐"
	LabelLunch         = "午餐"
	LabelDinner        = "晚餐"
	LabelAccommodation = "住宿"
	LabelSelfArranged  = "自理"
)

// Label returns the label used in item names for the meal type
func (m MealType) Label() string {
	switch m {
	case MealBreakfast:
		return LabelBreakfast
	case MealLunch:
		return LabelLunch
	case MealDinner:
		return LabelDinner
	}
	return ""
}

// Meals is the meal plan of one itinerary day. Keys other than the three
// slots are kept in Extra.
type Meals struct {
	Breakfast string `json:"breakfast" yaml:"breakfast,omitempty"`
	Lunch     string `json:"lunch" yaml:"lunch,omitempty"`
	Dinner    string `json:"dinner" yaml:"dinner,omitempty"`

	Extra   map[string]json.RawMessage `json:"-" yaml:"-"`
	present map[string]bool
}

type mealsFields Meals

var mealsKeys = []string{"breakfast", "lunch", "dinner"}

// Get returns the stored value for a meal type
func (m Meals) Get(t MealType) string {
	switch t {
	case MealBreakfast:
		return m.Breakfast
	case MealLunch:
		return m.Lunch
	case MealDinner:
		return m.Dinner
	}
	return ""
}

// UnmarshalJSON decodes the meal slots and keeps every other key in Extra
func (m *Meals) UnmarshalJSON(b []byte) error {
	var fields mealsFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	present, extra, err := decodeObject(b, mealsKeys)
	if err != nil {
		return err
	}
	fields.present, fields.Extra = present, extra
	*m = Meals(fields)
	return nil
}

// MarshalJSON writes the slots that were read or are set, plus Extra
func (m Meals) MarshalJSON() ([]byte, error) {
	return encodeObject(mealsFields(m), m.present, m.Extra)
}

// Activity is an itinerary activity entry. Keys such as icon or image are
// kept in Extra.
type Activity struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description,omitempty"`

	Extra   map[string]json.RawMessage `json:"-" yaml:"-"`
	present map[string]bool
}

type activityFields Activity

var activityKeys = []string{"title", "description"}

// UnmarshalJSON decodes title and description and keeps every other key in Extra
func (a *Activity) UnmarshalJSON(b []byte) error {
	var fields activityFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	present, extra, err := decodeObject(b, activityKeys)
	if err != nil {
		return err
	}
	fields.present, fields.Extra = present, extra
	*a = Activity(fields)
	return nil
}

// MarshalJSON writes the activity with its preserved Extra keys
func (a Activity) MarshalJSON() ([]byte, error) {
	return encodeObject(activityFields(a), a.present, a.Extra, "title")
}

// DayRecord is one day of an itinerary. Only Meals is owned by the sync;
// keys this service does not model are kept in Extra and written back
// verbatim, and modelled keys read from the store are written back even
// when empty.
type DayRecord struct {
	DayLabel      string     `json:"dayLabel" yaml:"day_label,omitempty"`
	Date          string     `json:"date" yaml:"date,omitempty"`
	Title         string     `json:"title" yaml:"title,omitempty"`
	Meals         Meals      `json:"meals" yaml:"meals"`
	Accommodation string     `json:"accommodation" yaml:"accommodation,omitempty"`
	Activities    []Activity `json:"activities" yaml:"activities,omitempty"`

	Extra   map[string]json.RawMessage `json:"-" yaml:"-"`
	present map[string]bool
}

type dayRecordFields DayRecord

var dayRecordKeys = []string{"dayLabel", "date", "title", "meals", "accommodation", "activities"}

// UnmarshalJSON decodes the known fields and keeps every other key in Extra
func (d *DayRecord) UnmarshalJSON(b []byte) error {
	var fields dayRecordFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	present, extra, err := decodeObject(b, dayRecordKeys)
	if err != nil {
		return err
	}
	fields.present, fields.Extra = present, extra
	*d = DayRecord(fields)
	return nil
}

// MarshalJSON writes the known fields merged with the preserved Extra keys
func (d DayRecord) MarshalJSON() ([]byte, error) {
	return encodeObject(dayRecordFields(d), d.present, d.Extra, "meals")
}

// Itinerary is the external day-by-day itinerary a quote may link to
type Itinerary struct {
	ID             string      `json:"id" yaml:"id"`
	Title          string      `json:"title" yaml:"title"`
	Tagline        string      `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	DailyItinerary []DayRecord `json:"daily_itinerary" yaml:"daily_itinerary"`
	UpdatedAt      time.Time   `json:"updated_at" yaml:"-"`
}

// DisplayTitle returns the title shown in sync confirmation
func (i *Itinerary) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Tagline
}

// CloneDays copies the day list including activities and every Extra map
func CloneDays(days []DayRecord) []DayRecord {
	if days == nil {
		return nil
	}
	out := make([]DayRecord, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Extra = cloneRaw(d.Extra)
		out[i].Meals.Extra = cloneRaw(d.Meals.Extra)
		if d.Activities != nil {
			out[i].Activities = make([]Activity, len(d.Activities))
			for j, a := range d.Activities {
				out[i].Activities[j] = a
				out[i].Activities[j].Extra = cloneRaw(a.Extra)
			}
		}
	}
	return out
}

// MealDiff is a proposed change of one meal slot in a linked itinerary
type MealDiff struct {
	Day       int      `json:"day"`
	Type      MealType `json:"type"`
	TypeLabel string   `json:"type_label"`
	OldValue  string   `json:"old_value"`
	NewValue  string   `json:"new_value"`
}
