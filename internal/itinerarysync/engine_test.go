package itinerarysync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

type fakeItineraries struct {
	items   map[string]*domain.Itinerary
	updates int
	failGet error
}

func newFakeItineraries(its ...*domain.Itinerary) *fakeItineraries {
	f := &fakeItineraries{items: map[string]*domain.Itinerary{}}
	for _, it := range its {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeItineraries) GetByID(_ context.Context, id string) (*domain.Itinerary, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	it, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrItineraryNotFound)
	}
	cp := *it
	cp.DailyItinerary = domain.CloneDays(it.DailyItinerary)
	return &cp, nil
}

func (f *fakeItineraries) UpdateDays(_ context.Context, id string, days []domain.DayRecord) error {
	f.updates++
	f.items[id].DailyItinerary = domain.CloneDays(days)
	return nil
}

func threeDayItinerary() *domain.Itinerary {
	return &domain.Itinerary{
		ID:    "it-1",
		Title: "北京三日",
		DailyItinerary: []domain.DayRecord{
			{DayLabel: "Day 1", Meals: domain.Meals{Lunch: "餃子館", Dinner: "飯店"}},
			{DayLabel: "Day 2", Meals: domain.Meals{Lunch: "待訂", Dinner: "全聚德"}, Extra: map[string]json.RawMessage{"images": json.RawMessage(`["a.jpg"]`)}},
			{DayLabel: "Day 3", Meals: domain.Meals{Breakfast: "飯店"}},
		},
	}
}

func quoteWithMeals(itineraryID string, items ...domain.CategoryItem) *domain.Quote {
	q := domain.NewQuote("q-1", "北京")
	if itineraryID != "" {
		q.ItineraryID = &itineraryID
	}
	meals := domain.FindCategory(q.State.Categories, domain.CategoryMeals)
	meals.Items = items
	return q
}

func noLog(string, ...any) {}

func TestDecodeMealName(t *testing.T) {
	tests := []struct {
		name   string
		want   DecodedMeal
		wantOK bool
	}{
		{"Day 2 午餐 - 烤鴨店", DecodedMeal{Day: 2, Type: domain.MealLunch, Detail: "烤鴨店"}, true},
		{"Day3晚餐-火鍋", DecodedMeal{Day: 3, Type: domain.MealDinner, Detail: "火鍋"}, true},
		{"Day 1 早餐", DecodedMeal{Day: 1, Type: domain.MealBreakfast, Detail: ""}, true},
		{"Day 10 晚餐 -   海鮮  ", DecodedMeal{Day: 10, Type: domain.MealDinner, Detail: "海鮮"}, true},
		{"團體午餐", DecodedMeal{}, false},
		{"Day 0 午餐 - x", DecodedMeal{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeMealName(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMealItemName_RoundTrip(t *testing.T) {
	name := MealItemName(4, domain.MealDinner, "涮羊肉")
	got, ok := DecodeMealName(name)
	require.True(t, ok)
	assert.Equal(t, DecodedMeal{Day: 4, Type: domain.MealDinner, Detail: "涮羊肉"}, got)
}

func TestEngine_PreviewSingleDiff(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	q := quoteWithMeals("it-1", domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店"})

	preview, err := NewEngine(store, WithLogger(noLog)).Preview(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, StatusReady, preview.Status)
	assert.Equal(t, "北京三日", preview.ItineraryTitle)
	assert.Equal(t, []domain.MealDiff{{
		Day: 2, Type: domain.MealLunch, TypeLabel: "午餐", OldValue: "待訂", NewValue: "烤鴨店",
	}}, preview.Diffs)
	assert.Zero(t, store.updates)
}

func TestEngine_PreviewSelfArranged(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	q := quoteWithMeals("it-1", domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店", IsSelfArranged: true})

	preview, err := NewEngine(store, WithLogger(noLog)).Preview(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, preview.Diffs, 1)
	assert.Equal(t, domain.LabelSelfArranged, preview.Diffs[0].NewValue)
}

func TestEngine_PreviewNoLink(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	q := quoteWithMeals("", domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店"})

	var phases []Phase
	preview, err := NewEngine(store, WithLogger(noLog), WithPhaseHook(func(p Phase) { phases = append(phases, p) })).
		Preview(context.Background(), q)

	require.Error(t, err)
	assert.Nil(t, preview)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, errors.Is(err, domain.ErrNoLinkedItinerary))
	assert.Contains(t, err.Error(), domain.MsgNoLinkedItinerary)
	assert.Equal(t, []Phase{PhaseAborted}, phases)
	assert.Zero(t, store.updates)
}

func TestEngine_PreviewBrokenLink(t *testing.T) {
	store := newFakeItineraries()
	q := quoteWithMeals("gone", domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店"})

	_, err := NewEngine(store, WithLogger(noLog)).Preview(context.Background(), q)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, errors.Is(err, domain.ErrItineraryNotFound))
	assert.Contains(t, err.Error(), domain.MsgItineraryNotFound)
}

func TestEngine_PreviewStoreFailure(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	store.failGet = errors.New("connection refused")
	q := quoteWithMeals("it-1", domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店"})

	_, err := NewEngine(store, WithLogger(noLog)).Preview(context.Background(), q)
	require.Error(t, err)
	assert.False(t, domain.IsNotFound(err))
}

func TestEngine_PreviewNoOp(t *testing.T) {
	t.Run("empty meals category", func(t *testing.T) {
		store := newFakeItineraries(threeDayItinerary())
		preview, err := NewEngine(store, WithLogger(noLog)).Preview(context.Background(), quoteWithMeals("it-1"))
		require.NoError(t, err)
		assert.Equal(t, StatusNoOp, preview.Status)
		assert.Equal(t, domain.MsgNothingToSync, preview.Message)
		assert.Empty(t, preview.Diffs)
	})

	t.Run("values already match", func(t *testing.T) {
		store := newFakeItineraries(threeDayItinerary())
		q := quoteWithMeals("it-1",
			domain.CategoryItem{Name: "Day 1 午餐 - 餃子館"},
			domain.CategoryItem{Name: "Day 2 晚餐 - 全聚德"},
		)
		preview, err := NewEngine(store, WithLogger(noLog)).Preview(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, StatusNoOp, preview.Status)
		assert.Equal(t, PhaseIdle.String(), preview.Phase)
	})
}

func TestExtract_SkipsAndLogsUndecodable(t *testing.T) {
	var logged []string
	logf := func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }
	categories := []domain.Category{{ID: domain.CategoryMeals, Items: []domain.CategoryItem{
		{Name: "團體餐"},
		{Name: "Day 1 早餐 - 飯店"},
		{Name: "Day 1 午餐 - A"},
		{Name: "Day 1 午餐 - B"},
	}}}

	plan := Extract(categories, logf)

	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "團體餐")
	require.Contains(t, plan, 1)
	require.NotNil(t, plan[1].Lunch)
	assert.Equal(t, "B", plan[1].Lunch.Name)
	assert.Nil(t, plan[1].Dinner)
}

func TestCompare_OrderAndFilters(t *testing.T) {
	plan := MealPlan{
		3: {Dinner: &MealEntry{Name: "烤肉"}},
		1: {Lunch: &MealEntry{Name: "麵"}, Dinner: &MealEntry{Name: "飯"}},
		2: {Lunch: &MealEntry{Name: ""}},
		9: {Lunch: &MealEntry{Name: "超出"}},
	}
	diffs := Compare(plan, threeDayItinerary().DailyItinerary)

	require.Len(t, diffs, 3)
	assert.Equal(t, 1, diffs[0].Day)
	assert.Equal(t, domain.MealLunch, diffs[0].Type)
	assert.Equal(t, 1, diffs[1].Day)
	assert.Equal(t, domain.MealDinner, diffs[1].Type)
	assert.Equal(t, 3, diffs[2].Day)
	assert.Equal(t, "", diffs[2].OldValue)
}

func TestCompare_Deterministic(t *testing.T) {
	q := quoteWithMeals("it-1",
		domain.CategoryItem{Name: "Day 3 晚餐 - 烤肉"},
		domain.CategoryItem{Name: "Day 1 午餐 - 麵"},
		domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店"},
	)
	days := threeDayItinerary().DailyItinerary
	first := Compare(Extract(q.State.Categories, noLog), days)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Compare(Extract(q.State.Categories, noLog), days))
	}
}

func TestEngine_ApplyWritesOnlyTargetSlots(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	q := quoteWithMeals("it-1", domain.CategoryItem{Name: "Day 2 午餐 - 烤鴨店"})
	engine := NewEngine(store, WithLogger(noLog))

	preview, err := engine.Preview(context.Background(), q)
	require.NoError(t, err)
	res, err := engine.Apply(context.Background(), q, preview.Diffs)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, store.updates)

	got := store.items["it-1"].DailyItinerary
	want := threeDayItinerary().DailyItinerary
	want[1].Meals.Lunch = "烤鴨店"
	assert.Equal(t, want, got)
	assert.JSONEq(t, `["a.jpg"]`, string(got[1].Extra["images"]))
}

func TestEngine_ApplyKeepsStoredJSONShape(t *testing.T) {
	stored := `[
		{"dayLabel":"Day 1","date":"","title":"","meals":{"breakfast":"","lunch":"待訂","dinner":"","note":"x"},"accommodation":"","activities":[{"icon":"🏯","title":"Castle","description":"d","image":"a.jpg"}],"recommendations":[]},
		{"dayLabel":"Day 2","meals":{"lunch":"拉麵","dinner":"燒肉"},"activities":[]}
	]`
	var days []domain.DayRecord
	require.NoError(t, json.Unmarshal([]byte(stored), &days))
	store := newFakeItineraries(&domain.Itinerary{ID: "it-1", DailyItinerary: days})

	res, err := NewEngine(store, WithLogger(noLog)).Apply(context.Background(), quoteWithMeals("it-1"), []domain.MealDiff{
		{Day: 1, Type: domain.MealLunch, NewValue: "烤鴨店"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)

	out, err := json.Marshal(store.items["it-1"].DailyItinerary)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"dayLabel":"Day 1","date":"","title":"","meals":{"breakfast":"","lunch":"烤鴨店","dinner":"","note":"x"},"accommodation":"","activities":[{"icon":"🏯","title":"Castle","description":"d","image":"a.jpg"}],"recommendations":[]},
		{"dayLabel":"Day 2","meals":{"lunch":"拉麵","dinner":"燒肉"},"activities":[]}
	]`, string(out))
}

func TestEngine_ApplyRejectsInvalidDiffs(t *testing.T) {
	tests := []struct {
		name string
		diff domain.MealDiff
	}{
		{"breakfast", domain.MealDiff{Day: 1, Type: domain.MealBreakfast, NewValue: "x"}},
		{"unknown type", domain.MealDiff{Day: 1, Type: "brunch", NewValue: "x"}},
		{"day zero", domain.MealDiff{Day: 0, Type: domain.MealLunch, NewValue: "x"}},
		{"day past end", domain.MealDiff{Day: 4, Type: domain.MealLunch, NewValue: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeItineraries(threeDayItinerary())
			q := quoteWithMeals("it-1")
			valid := domain.MealDiff{Day: 1, Type: domain.MealLunch, NewValue: "ok"}

			_, err := NewEngine(store, WithLogger(noLog)).Apply(context.Background(), q, []domain.MealDiff{valid, tt.diff})
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.True(t, errors.Is(err, domain.ErrInvalidMealDiff))
			assert.Zero(t, store.updates)
			assert.Equal(t, "餃子館", store.items["it-1"].DailyItinerary[0].Meals.Lunch)
		})
	}
}

func TestEngine_ApplySkipsEmptyValues(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	q := quoteWithMeals("it-1")

	res, err := NewEngine(store, WithLogger(noLog)).Apply(context.Background(), q, []domain.MealDiff{
		{Day: 1, Type: domain.MealLunch, NewValue: ""},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Applied)
	assert.Zero(t, store.updates)
}

func TestEngine_ApplyNoLink(t *testing.T) {
	store := newFakeItineraries(threeDayItinerary())
	_, err := NewEngine(store, WithLogger(noLog)).Apply(context.Background(), quoteWithMeals(""), []domain.MealDiff{
		{Day: 1, Type: domain.MealLunch, NewValue: "x"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoLinkedItinerary))
	assert.Zero(t, store.updates)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "awaiting_confirmation", PhaseAwaitingConfirmation.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
