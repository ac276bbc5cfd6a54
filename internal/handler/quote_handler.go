package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/model"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
)

// QuoteHandler handles HTTP requests for quote pricing operations
type QuoteHandler struct {
	quoteService service.QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteService service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}

// CreateQuote handles the POST /quotes endpoint
// @Summary Create a quote
// @Description Create a quote, optionally with an initial pricing state, tiers and itinerary link
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body model.CreateQuoteRequest true "Quote data"
// @Success 201 {object} domain.Quote "Quote created successfully"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req model.CreateQuoteRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	quote, err := h.quoteService.CreateQuote(c.Request.Context(), service.CreateQuoteInput{
		Name:         req.Name,
		ItineraryID:  req.ItineraryID,
		State:        req.State,
		TierPricings: req.TierPricings,
	})
	if err != nil {
		respondServiceError(c, "failed_to_create_quote", err)
		return
	}

	respondCreated(c, quote)
}

// ListQuotes handles the GET /quotes endpoint
// @Summary List quotes
// @Description Get a paginated list of quote summaries, most recently updated first
// @Tags quotes
// @Produce json
// @Param name query string false "Filter by quote name"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} domain.PaginatedQuotes "Quote summaries"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	page, err := getQueryInt(c, "page", 1)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("page", err.Error()))
		return
	}
	limit, err := getQueryInt(c, "limit", 10)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("limit", err.Error()))
		return
	}
	if err := validatePagination(page, limit); err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("pagination", err.Error()))
		return
	}

	quotes, err := h.quoteService.ListQuotes(c.Request.Context(), domain.QuoteFilter{
		Name:  getQueryString(c, "name"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondServiceError(c, "failed_to_list_quotes", err)
		return
	}

	respondOK(c, quotes)
}

// GetQuote handles the GET /quotes/{id} endpoint
// @Summary Get a quote
// @Description Get a quote with its live state, versions and tiers
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.Quote "Quote"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	quote, err := h.quoteService.GetQuote(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_get_quote", err)
		return
	}

	respondOK(c, quote)
}

// UpdateQuote handles the PATCH /quotes/{id} endpoint
// @Summary Update a quote
// @Description Rename a quote or change its itinerary link; an empty itinerary_id unlinks
// @Tags quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param quote body model.UpdateQuoteRequest true "Fields to change"
// @Success 200 {object} domain.Quote "Updated quote"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id} [patch]
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.UpdateQuoteRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	quote, err := h.quoteService.UpdateQuote(c.Request.Context(), quoteID, service.UpdateQuoteInput{
		Name:        req.Name,
		ItineraryID: req.ItineraryID,
	})
	if err != nil {
		respondServiceError(c, "failed_to_update_quote", err)
		return
	}

	respondOK(c, quote)
}

// UpdateState handles the PUT /quotes/{id}/state endpoint
// @Summary Replace the pricing state
// @Description Replace categories, accommodation days, participant counts and selling prices of the live state
// @Tags quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param state body domain.PricingState true "Pricing state"
// @Success 200 {object} domain.Quote "Updated quote"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/state [put]
func (h *QuoteHandler) UpdateState(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var state domain.PricingState
	if err := bindJSON(c, &state); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	quote, err := h.quoteService.UpdateState(c.Request.Context(), quoteID, state)
	if err != nil {
		respondServiceError(c, "failed_to_update_state", err)
		return
	}

	respondOK(c, quote)
}

// Calculate handles the POST /quotes/calculate endpoint
// @Summary Price a state
// @Description Aggregate costs and derive per-identity cost, price and profit for a state and its tiers without storing anything
// @Tags pricing
// @Accept json
// @Produce json
// @Param request body model.CalculateRequest true "State and tiers"
// @Success 200 {object} service.Calculation "Calculation"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/calculate [post]
func (h *QuoteHandler) Calculate(c *gin.Context) {
	var req model.CalculateRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	calc, err := h.quoteService.Calculate(c.Request.Context(), req.State, req.TierPricings)
	if err != nil {
		respondServiceError(c, "failed_to_calculate", err)
		return
	}

	respondOK(c, calc)
}

// GetCalculation handles the GET /quotes/{id}/calculation endpoint
// @Summary Price a stored quote
// @Description Calculate a stored quote; currency converts every amount from the base currency
// @Tags pricing
// @Produce json
// @Param id path string true "Quote ID"
// @Param currency query string false "Target currency code (e.g. JPY)"
// @Success 200 {object} service.Calculation "Calculation"
// @Failure 400 {object} model.ErrorResponse "Invalid state or unsupported currency"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/calculation [get]
func (h *QuoteHandler) GetCalculation(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	calc, err := h.quoteService.GetCalculation(c.Request.Context(), quoteID, getQueryString(c, "currency"))
	if err != nil {
		respondServiceError(c, "failed_to_get_calculation", err)
		return
	}

	respondOK(c, calc)
}

// SetTiers handles the PUT /quotes/{id}/tiers endpoint
// @Summary Replace tier pricings
// @Description Replace the alternative headcount scenarios of a quote
// @Tags pricing
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param tiers body model.TiersRequest true "Tier pricings"
// @Success 200 {object} domain.Quote "Updated quote"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/tiers [put]
func (h *QuoteHandler) SetTiers(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.TiersRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	quote, err := h.quoteService.SetTiers(c.Request.Context(), quoteID, req.TierPricings)
	if err != nil {
		respondServiceError(c, "failed_to_set_tiers", err)
		return
	}

	respondOK(c, quote)
}

// ApplyLocalTiers handles the POST /quotes/{id}/tiers/local endpoint
// @Summary Build tiers from a local price ladder
// @Description Replace the tiers with one tier per ladder step; the first tier uses the current headcount
// @Tags pricing
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param ladder body model.LocalTiersRequest true "Local price ladder"
// @Success 200 {object} domain.Quote "Updated quote"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/tiers/local [post]
func (h *QuoteHandler) ApplyLocalTiers(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.LocalTiersRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	quote, err := h.quoteService.ApplyLocalTiers(c.Request.Context(), quoteID, req.LocalTiers)
	if err != nil {
		respondServiceError(c, "failed_to_apply_local_tiers", err)
		return
	}

	respondOK(c, quote)
}
