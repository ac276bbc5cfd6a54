package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/itinerarysync"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/model"
	"github.com/ridwanfathin/tour-quote-service/internal/repository"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	svc := service.NewQuoteService(service.Dependencies{
		Quotes:      repo,
		Itineraries: repo.Itineraries(),
		Metrics:     metrics.New(),
		MaxWorkers:  2,
	})
	quotes := NewQuoteHandler(svc)
	sync := NewSyncHandler(svc)

	r := gin.New()
	v1 := r.Group("/v1")
	v1.POST("/quotes", quotes.CreateQuote)
	v1.GET("/quotes", quotes.ListQuotes)
	v1.POST("/quotes/calculate", quotes.Calculate)
	v1.GET("/quotes/:id", quotes.GetQuote)
	v1.PATCH("/quotes/:id", quotes.UpdateQuote)
	v1.PUT("/quotes/:id/state", quotes.UpdateState)
	v1.GET("/quotes/:id/calculation", quotes.GetCalculation)
	v1.PUT("/quotes/:id/tiers", quotes.SetTiers)
	v1.POST("/quotes/:id/tiers/local", quotes.ApplyLocalTiers)
	v1.GET("/quotes/:id/versions", quotes.ListVersions)
	v1.POST("/quotes/:id/versions", quotes.SaveVersion)
	v1.POST("/quotes/:id/versions/:index/load", quotes.LoadVersion)
	v1.DELETE("/quotes/:id/versions/:index", quotes.DeleteVersion)
	v1.POST("/quotes/:id/sync/meals/preview", sync.PreviewMealSync)
	v1.POST("/quotes/:id/sync/meals/apply", sync.ApplyMealSync)
	v1.POST("/quotes/:id/sync/accommodation", sync.SyncAccommodation)
	v1.GET("/quotes/:id/itinerary-draft", sync.GetItineraryDraft)
	v1.POST("/quotes/:id/itinerary", sync.CreateItineraryFromQuote)
	v1.POST("/itineraries", sync.CreateItinerary)
	v1.GET("/itineraries/:id", sync.GetItinerary)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const quoteBody = `{
	"name": "北海道五日",
	"state": {
		"categories": [
			{"id": "accommodation", "items": [{"name": "Day 1 住宿 - 札幌飯店", "unit_cost": 6000, "quantity": 1, "day": 1}]},
			{"id": "meals", "items": [{"name": "Day 1 午餐 - 湯咖哩", "unit_cost": 300, "quantity": 2}]}
		],
		"accommodation_days": 1,
		"participant_counts": {"adult": 2},
		"selling_prices": {"adult": 8000}
	}
}`

func createQuote(t *testing.T, r *gin.Engine) domain.Quote {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", bytes.NewBufferString(quoteBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Quote](t, rec)
}

func TestCreateAndGetQuote(t *testing.T) {
	r := setupRouter(t)
	quote := createQuote(t, r)
	assert.Equal(t, "北海道五日", quote.Name)

	rec := doJSON(t, r, http.MethodGet, "/v1/quotes/"+quote.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Quote](t, rec)
	assert.Equal(t, quote.ID, got.ID)

	list := doJSON(t, r, http.MethodGet, "/v1/quotes?limit=5", nil)
	require.Equal(t, http.StatusOK, list.Code)
	page := decode[domain.PaginatedQuotes](t, list)
	assert.Equal(t, 1, page.Pagination.TotalItems)
}

func TestCreateQuote_BadRequests(t *testing.T) {
	r := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/quotes", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/quotes", map[string]interface{}{
		"name":  "x",
		"state": map[string]interface{}{"participant_counts": map[string]int{"pet": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown identity is rejected at the boundary")

	rec = doJSON(t, r, http.MethodGet, "/v1/quotes?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuote_NotFound(t *testing.T) {
	r := setupRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/v1/quotes/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	assert.Equal(t, "Not Found", resp.Status)
}

func TestCalculateEndpoints(t *testing.T) {
	r := setupRouter(t)
	quote := createQuote(t, r)

	rec := doJSON(t, r, http.MethodGet, "/v1/quotes/"+quote.ID+"/calculation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	calc := decode[service.Calculation](t, rec)
	assert.Equal(t, 6600.0, calc.Breakdown.TotalCost)
	assert.InDelta(t, 3300.0, calc.Pricing.Primary.IdentityCosts[domain.IdentityAdult], 1e-9)

	rec = doJSON(t, r, http.MethodGet, "/v1/quotes/"+quote.ID+"/calculation?currency=USD", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no rate provider configured")

	rec = doJSON(t, r, http.MethodPost, "/v1/quotes/calculate", model.CalculateRequest{
		State: quote.State,
		TierPricings: []domain.TierPricing{
			{ID: "t0", ParticipantCount: 0},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	stateless := decode[service.Calculation](t, rec)
	require.Len(t, stateless.Pricing.Tiers, 1)
	assert.Zero(t, stateless.Pricing.Tiers[0].TotalCost)

	rec = doJSON(t, r, http.MethodPut, "/v1/quotes/"+quote.ID+"/tiers", model.TiersRequest{
		TierPricings: []domain.TierPricing{{ParticipantCount: -3}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "tier_pricings[0].participant_count", resp.Details[0].Field)
}

func TestVersionEndpoints(t *testing.T) {
	r := setupRouter(t)
	quote := createQuote(t, r)
	base := "/v1/quotes/" + quote.ID + "/versions"

	rec := doJSON(t, r, http.MethodPost, base, model.SaveVersionRequest{Name: "初版"})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decode[service.SavedVersion](t, rec)
	assert.Equal(t, 1, saved.Record.Version)

	rec = doJSON(t, r, http.MethodPost, base+"/0/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	marker := decode[model.VersionMarkerResponse](t, rec)
	assert.Equal(t, 0, marker.CurrentVersion)

	rec = doJSON(t, r, http.MethodPost, base+"/-1/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PrimaryVersion, decode[model.VersionMarkerResponse](t, rec).CurrentVersion)

	rec = doJSON(t, r, http.MethodPost, base+"/5/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, base+"/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, base+"/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[service.VersionList](t, rec).Versions)
}

func TestSyncEndpoints(t *testing.T) {
	r := setupRouter(t)
	quote := createQuote(t, r)
	base := "/v1/quotes/" + quote.ID

	rec := doJSON(t, r, http.MethodPost, base+"/sync/meals/preview", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.MsgNoLinkedItinerary, decode[model.ErrorResponse](t, rec).Message)

	broken := "gone"
	rec = doJSON(t, r, http.MethodPatch, base, model.UpdateQuoteRequest{ItineraryID: &broken})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, r, http.MethodPost, base+"/sync/meals/preview", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.MsgItineraryNotFound, decode[model.ErrorResponse](t, rec).Message)

	rec = doJSON(t, r, http.MethodPost, "/v1/itineraries", domain.Itinerary{
		Title:          "北海道",
		DailyItinerary: []domain.DayRecord{{DayLabel: "Day 1", Meals: domain.Meals{Lunch: "待訂"}}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	itinerary := decode[domain.Itinerary](t, rec)

	rec = doJSON(t, r, http.MethodPatch, base, model.UpdateQuoteRequest{ItineraryID: &itinerary.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, base+"/sync/meals/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[itinerarysync.Preview](t, rec)
	assert.Equal(t, itinerarysync.StatusReady, preview.Status)
	require.Len(t, preview.Diffs, 1)

	rec = doJSON(t, r, http.MethodPost, base+"/sync/meals/apply", model.ApplyMealSyncRequest{
		Diffs: []domain.MealDiff{{Day: 9, Type: domain.MealLunch, NewValue: "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "day outside the itinerary")

	rec = doJSON(t, r, http.MethodPost, base+"/sync/meals/apply", model.ApplyMealSyncRequest{Diffs: preview.Diffs})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[itinerarysync.ApplyResult](t, rec).Applied)

	rec = doJSON(t, r, http.MethodGet, "/v1/itineraries/"+itinerary.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "湯咖哩", decode[domain.Itinerary](t, rec).DailyItinerary[0].Meals.Lunch)

	rec = doJSON(t, r, http.MethodGet, base+"/itinerary-draft", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[itinerarysync.Draft](t, rec)
	assert.Equal(t, 2, draft.Days)
}
