package model

import (
	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/pricing"
)

// CreateQuoteRequest represents the request body for creating a quote
type CreateQuoteRequest struct {
	Name         string               `json:"name" binding:"required"`
	ItineraryID  *string              `json:"itinerary_id,omitempty"`
	State        *domain.PricingState `json:"state,omitempty"`
	TierPricings []domain.TierPricing `json:"tier_pricings,omitempty"`
}

// UpdateQuoteRequest represents the request body for renaming a quote or
// changing its itinerary link. An empty itinerary_id removes the link.
type UpdateQuoteRequest struct {
	Name        *string `json:"name,omitempty"`
	ItineraryID *string `json:"itinerary_id,omitempty"`
}

// CalculateRequest represents a stateless pricing request
type CalculateRequest struct {
	State        domain.PricingState  `json:"state"`
	TierPricings []domain.TierPricing `json:"tier_pricings"`
}

// TiersRequest represents the request body for replacing tier pricings
type TiersRequest struct {
	TierPricings []domain.TierPricing `json:"tier_pricings"`
}

// LocalTiersRequest represents a local-agent price ladder
type LocalTiersRequest struct {
	LocalTiers []pricing.LocalTier `json:"local_tiers" binding:"required"`
}

// SaveVersionRequest represents the request body for saving a version
type SaveVersionRequest struct {
	Name  string `json:"name"`
	Note  string `json:"note"`
	AsNew bool   `json:"as_new"`
}

// ApplyMealSyncRequest carries the diffs the user confirmed
type ApplyMealSyncRequest struct {
	Diffs []domain.MealDiff `json:"diffs" binding:"required"`
}

// VersionMarkerResponse reports the loaded version after a load or delete
type VersionMarkerResponse struct {
	CurrentVersion int           `json:"current_version"`
	Quote          *domain.Quote `json:"quote"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
