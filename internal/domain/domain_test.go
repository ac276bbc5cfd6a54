package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayRecord_KeepsUnknownKeys(t *testing.T) {
	in := `{"dayLabel":"Day 1","meals":{"lunch":"待訂"},"transport":{"bus":"遊覽車"},"highlight":"小樽運河"}`

	var day DayRecord
	require.NoError(t, json.Unmarshal([]byte(in), &day))
	assert.Equal(t, "Day 1", day.DayLabel)
	assert.Equal(t, "待訂", day.Meals.Lunch)
	require.Len(t, day.Extra, 2)

	day.Meals.Lunch = "湯咖哩"
	out, err := json.Marshal(day)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dayLabel":"Day 1","meals":{"lunch":"湯咖哩"},"transport":{"bus":"遊覽車"},"highlight":"小樽運河"}`, string(out))
}

func TestDayRecord_NoExtraKeys(t *testing.T) {
	out, err := json.Marshal(DayRecord{DayLabel: "Day 2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dayLabel":"Day 2","meals":{}}`, string(out))
}

func TestDayRecord_RoundTripKeepsNestedAndEmptyKeys(t *testing.T) {
	in := `{"dayLabel":"Day 1","date":"","title":"","meals":{"breakfast":"","lunch":"待訂","dinner":"","note":"x"},"accommodation":"","activities":[{"icon":"🏯","title":"Castle","description":"d","image":"a.jpg"}],"recommendations":[]}`

	var day DayRecord
	require.NoError(t, json.Unmarshal([]byte(in), &day))
	assert.Equal(t, `"x"`, string(day.Meals.Extra["note"]))
	require.Len(t, day.Activities, 1)
	assert.Equal(t, `"a.jpg"`, string(day.Activities[0].Extra["image"]))

	day.Meals.Lunch = "烤鴨店"
	out, err := json.Marshal(day)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dayLabel":"Day 1","date":"","title":"","meals":{"breakfast":"","lunch":"烤鴨店","dinner":"","note":"x"},"accommodation":"","activities":[{"icon":"🏯","title":"Castle","description":"d","image":"a.jpg"}],"recommendations":[]}`, string(out))
}

func TestActivity_NewEntryOmitsEmptyDescription(t *testing.T) {
	out, err := json.Marshal(Activity{Title: "旭山動物園"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"旭山動物園"}`, string(out))
}

func TestCloneDays_Independent(t *testing.T) {
	days := []DayRecord{{
		DayLabel:   "Day 1",
		Meals:      Meals{Extra: map[string]json.RawMessage{"note": json.RawMessage(`"m"`)}},
		Activities: []Activity{{Title: "旭山動物園", Extra: map[string]json.RawMessage{"icon": json.RawMessage(`"🐧"`)}}},
		Extra:      map[string]json.RawMessage{"note": json.RawMessage(`"x"`)},
	}}

	cp := CloneDays(days)
	cp[0].Activities[0].Title = "changed"
	cp[0].Activities[0].Extra["icon"] = json.RawMessage(`"🐻"`)
	cp[0].Meals.Extra["note"] = json.RawMessage(`"n"`)
	cp[0].Extra["note"] = json.RawMessage(`"y"`)

	assert.Equal(t, "旭山動物園", days[0].Activities[0].Title)
	assert.Equal(t, `"🐧"`, string(days[0].Activities[0].Extra["icon"]))
	assert.Equal(t, `"m"`, string(days[0].Meals.Extra["note"]))
	assert.Equal(t, `"x"`, string(days[0].Extra["note"]))
	assert.Nil(t, CloneDays(nil))
}

func TestQuote_CloneIndependent(t *testing.T) {
	q := NewQuote("q1", "關西")
	itineraryID := "it-1"
	q.ItineraryID = &itineraryID
	q.State.ParticipantCounts[IdentityAdult] = 2
	meals := FindCategory(q.State.Categories, CategoryMeals)
	require.NotNil(t, meals)
	meals.Items = append(meals.Items, CategoryItem{Name: "Day 1 午餐 - 拉麵", UnitCost: 300, Quantity: 2})
	q.Versions = append(q.Versions, VersionRecord{Version: 1, State: q.State.Clone()})

	cp := q.Clone()
	*cp.ItineraryID = "it-2"
	cp.State.ParticipantCounts[IdentityAdult] = 9
	FindCategory(cp.State.Categories, CategoryMeals).Items[0].UnitCost = 1
	cp.Versions[0].State.ParticipantCounts[IdentityAdult] = 7

	assert.Equal(t, "it-1", *q.ItineraryID)
	assert.Equal(t, 2, q.State.ParticipantCounts[IdentityAdult])
	assert.Equal(t, 300.0, FindCategory(q.State.Categories, CategoryMeals).Items[0].UnitCost)
	assert.Equal(t, 2, q.Versions[0].State.ParticipantCounts[IdentityAdult])
}

func TestNewQuote_Defaults(t *testing.T) {
	q := NewQuote("q1", "關西")

	assert.Equal(t, PrimaryVersion, q.CurrentVersion)
	assert.Len(t, q.State.Categories, len(AllCategories))
	assert.NotNil(t, q.Versions)
	assert.NotNil(t, q.TierPricings)
}

func TestIdentity_Boundary(t *testing.T) {
	var counts ParticipantCounts
	err := json.Unmarshal([]byte(`{"adult":2,"senior":1}`), &counts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "senior")

	var prices SellingPrices
	require.Error(t, json.Unmarshal([]byte(`{"vip":100}`), &prices))

	require.NoError(t, json.Unmarshal([]byte(`{"adult":2,"infant":1}`), &counts))
	assert.Equal(t, 2, counts.PayingTotal())
	assert.False(t, IdentityInfant.Paying())
	assert.True(t, IdentitySingleRoom.Paying())
}

func TestPricingState_Validate(t *testing.T) {
	tests := []struct {
		name  string
		state PricingState
		field string
	}{
		{
			name:  "negative accommodation days",
			state: PricingState{AccommodationDays: -1},
			field: "accommodation_days",
		},
		{
			name:  "unknown category",
			state: PricingState{Categories: []Category{{ID: "shopping"}}},
			field: "categories",
		},
		{
			name: "unknown ticket identity",
			state: PricingState{Categories: []Category{{
				ID:    CategoryTickets,
				Items: []CategoryItem{{Name: "JR Pass", Identity: "senior"}},
			}}},
			field: "categories.tickets",
		},
		{
			name:  "negative headcount",
			state: PricingState{ParticipantCounts: ParticipantCounts{IdentityAdult: -1}},
			field: "participant_counts.adult",
		},
		{
			name:  "negative price",
			state: PricingState{SellingPrices: SellingPrices{IdentityAdult: -5}},
			field: "selling_prices.adult",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	assert.NoError(t, PricingState{}.Validate())
}
