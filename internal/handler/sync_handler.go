package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/model"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
)

// SyncHandler handles itinerary sync and itinerary requests
type SyncHandler struct {
	quoteService service.QuoteService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(quoteService service.QuoteService) *SyncHandler {
	return &SyncHandler{
		quoteService: quoteService,
	}
}

// PreviewMealSync handles the POST /quotes/{id}/sync/meals/preview endpoint
// @Summary Preview meal sync
// @Description Diff the quote's meals against the linked itinerary; status is ready or noop
// @Tags sync
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} itinerarysync.Preview "Diffs awaiting confirmation"
// @Failure 404 {object} model.ErrorResponse "No linked itinerary or itinerary not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/sync/meals/preview [post]
func (h *SyncHandler) PreviewMealSync(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	preview, err := h.quoteService.PreviewMealSync(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_preview_meal_sync", err)
		return
	}

	respondOK(c, preview)
}

// ApplyMealSync handles the POST /quotes/{id}/sync/meals/apply endpoint
// @Summary Apply meal sync
// @Description Write the confirmed diffs into the linked itinerary in one update
// @Tags sync
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param diffs body model.ApplyMealSyncRequest true "Confirmed diffs"
// @Success 200 {object} itinerarysync.ApplyResult "Applied"
// @Failure 400 {object} model.ErrorResponse "Invalid diffs"
// @Failure 404 {object} model.ErrorResponse "No linked itinerary or itinerary not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/sync/meals/apply [post]
func (h *SyncHandler) ApplyMealSync(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.ApplyMealSyncRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("diffs", err.Error()))
		return
	}

	result, err := h.quoteService.ApplyMealSync(c.Request.Context(), quoteID, req.Diffs)
	if err != nil {
		respondServiceError(c, "failed_to_apply_meal_sync", err)
		return
	}

	respondOK(c, result)
}

// SyncAccommodation handles the POST /quotes/{id}/sync/accommodation endpoint
// @Summary Pull hotels from the itinerary
// @Description Copy the hotel of every itinerary day into the accommodation category
// @Tags sync
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} itinerarysync.AccommodationResult "Sync result"
// @Failure 404 {object} model.ErrorResponse "No linked itinerary or itinerary not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/sync/accommodation [post]
func (h *SyncHandler) SyncAccommodation(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	result, err := h.quoteService.SyncAccommodation(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_sync_accommodation", err)
		return
	}

	respondOK(c, result)
}

// GetItineraryDraft handles the GET /quotes/{id}/itinerary-draft endpoint
// @Summary Build an itinerary draft
// @Description Lay out the quote's meals, hotels and activities per day; undated items are flagged day_inferred
// @Tags sync
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} itinerarysync.Draft "Draft"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/itinerary-draft [get]
func (h *SyncHandler) GetItineraryDraft(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	draft, err := h.quoteService.BuildItineraryDraft(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_build_itinerary_draft", err)
		return
	}

	respondOK(c, draft)
}

// CreateItineraryFromQuote handles the POST /quotes/{id}/itinerary endpoint
// @Summary Create an itinerary from a quote
// @Description Store the quote's draft as a new itinerary and link the quote to it
// @Tags sync
// @Produce json
// @Param id path string true "Quote ID"
// @Success 201 {object} domain.Itinerary "Created itinerary"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/itinerary [post]
func (h *SyncHandler) CreateItineraryFromQuote(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	itinerary, err := h.quoteService.CreateItineraryFromQuote(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_create_itinerary_from_quote", err)
		return
	}

	respondCreated(c, itinerary)
}

// ImportMeals handles the POST /quotes/{id}/import/meals endpoint
// @Summary Import itinerary meals
// @Description Append the linked itinerary's meals, except self-arranged ones, as zero-cost meal items
// @Tags sync
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} service.ImportResult "Import result"
// @Failure 404 {object} model.ErrorResponse "No linked itinerary or itinerary not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/import/meals [post]
func (h *SyncHandler) ImportMeals(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	result, err := h.quoteService.ImportItineraryMeals(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_import_meals", err)
		return
	}

	respondOK(c, result)
}

// ImportActivities handles the POST /quotes/{id}/import/activities endpoint
// @Summary Import itinerary activities
// @Description Append the linked itinerary's activities as zero-cost activity items
// @Tags sync
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} service.ImportResult "Import result"
// @Failure 404 {object} model.ErrorResponse "No linked itinerary or itinerary not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/import/activities [post]
func (h *SyncHandler) ImportActivities(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	result, err := h.quoteService.ImportItineraryActivities(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_import_activities", err)
		return
	}

	respondOK(c, result)
}

// CreateItinerary handles the POST /itineraries endpoint
// @Summary Create an itinerary
// @Tags itineraries
// @Accept json
// @Produce json
// @Param itinerary body domain.Itinerary true "Itinerary"
// @Success 201 {object} domain.Itinerary "Created itinerary"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/itineraries [post]
func (h *SyncHandler) CreateItinerary(c *gin.Context) {
	var itinerary domain.Itinerary
	if err := bindJSON(c, &itinerary); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	created, err := h.quoteService.CreateItinerary(c.Request.Context(), &itinerary)
	if err != nil {
		respondServiceError(c, "failed_to_create_itinerary", err)
		return
	}

	respondCreated(c, created)
}

// GetItinerary handles the GET /itineraries/{id} endpoint
// @Summary Get an itinerary
// @Tags itineraries
// @Produce json
// @Param id path string true "Itinerary ID"
// @Success 200 {object} domain.Itinerary "Itinerary"
// @Failure 404 {object} model.ErrorResponse "Itinerary not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/itineraries/{id} [get]
func (h *SyncHandler) GetItinerary(c *gin.Context) {
	itineraryID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	itinerary, err := h.quoteService.GetItinerary(c.Request.Context(), itineraryID)
	if err != nil {
		respondServiceError(c, "failed_to_get_itinerary", err)
		return
	}

	respondOK(c, itinerary)
}
