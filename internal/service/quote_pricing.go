package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ridwanfathin/tour-quote-service/internal/currency"
	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/pricing"
)

// Calculation is the full pricing picture of a state: the aggregated
// breakdown, the primary and tier price rows, and the nights that still lack
// an accommodation item. Amounts are in Currency.
type Calculation struct {
	QuoteID                    string            `json:"quote_id,omitempty"`
	Currency                   string            `json:"currency"`
	ExchangeRate               float64           `json:"exchange_rate"`
	Breakdown                  pricing.Breakdown `json:"breakdown"`
	Pricing                    pricing.Result    `json:"pricing"`
	MissingAccommodationNights []int             `json:"missing_accommodation_nights"`
}

// Calculate prices a state without touching any stored quote
func (s *QuoteServiceImpl) Calculate(ctx context.Context, state domain.PricingState, tiers []domain.TierPricing) (*Calculation, error) {
	release, err := s.acquireWorker(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	calc, err := s.calculate(state, tiers)
	s.metrics.Calculations.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, &QuoteServiceError{Op: "calculate", Err: err}
	}
	return calc, nil
}

// GetCalculation prices a stored quote. A non-empty currency converts every
// amount from the base currency with the current exchange rate.
func (s *QuoteServiceImpl) GetCalculation(ctx context.Context, quoteID, targetCurrency string) (*Calculation, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, &QuoteServiceError{Op: "get_calculation", Err: err}
	}

	release, err := s.acquireWorker(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	calc, err := s.calculate(quote.State, quote.TierPricings)
	s.metrics.Calculations.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, &QuoteServiceError{Op: "get_calculation", Err: err}
	}
	calc.QuoteID = quote.ID

	targetCurrency = strings.ToUpper(strings.TrimSpace(targetCurrency))
	if targetCurrency == "" || targetCurrency == s.baseCurrency {
		return calc, nil
	}
	if s.rates == nil {
		return nil, &QuoteServiceError{
			Op:  "convert_currency",
			Err: &domain.ValidationError{Field: "currency", Message: "currency conversion is disabled"},
		}
	}
	rate, err := s.rates.Rate(ctx, s.baseCurrency, targetCurrency)
	if err != nil {
		if errors.Is(err, currency.ErrUnknownCurrency) {
			err = &domain.ValidationError{Field: "currency", Message: "unsupported currency " + targetCurrency, Err: err}
		}
		return nil, &QuoteServiceError{Op: "convert_currency", Err: err}
	}
	convertCalculation(calc, targetCurrency, rate)
	return calc, nil
}

// SetTiers replaces the quote's tier pricings
func (s *QuoteServiceImpl) SetTiers(ctx context.Context, quoteID string, tiers []domain.TierPricing) (*domain.Quote, error) {
	normalized, err := s.normalizeTiers(tiers)
	if err != nil {
		return nil, &QuoteServiceError{Op: "validate_tiers", Err: err}
	}
	return s.mutate(ctx, quoteID, "set_tiers", func(quote *domain.Quote) error {
		quote.TierPricings = normalized
		return nil
	})
}

// ApplyLocalTiers replaces the quote's tiers with ones derived from a local
// agent price ladder
func (s *QuoteServiceImpl) ApplyLocalTiers(ctx context.Context, quoteID string, ladder []pricing.LocalTier) (*domain.Quote, error) {
	if len(ladder) == 0 {
		return nil, &QuoteServiceError{
			Op:  "validate_local_tiers",
			Err: &domain.ValidationError{Field: "local_tiers", Message: "at least one tier is required"},
		}
	}
	return s.mutate(ctx, quoteID, "apply_local_tiers", func(quote *domain.Quote) error {
		tiers, err := pricing.LocalTiers(ladder, quote.State.ParticipantCounts, quote.State.SellingPrices, s.newID)
		if err != nil {
			return err
		}
		quote.TierPricings = tiers
		return nil
	})
}

func (s *QuoteServiceImpl) calculate(state domain.PricingState, tiers []domain.TierPricing) (*Calculation, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	breakdown := pricing.Aggregate(state.Categories, state.ParticipantCounts)
	result, err := pricing.Calculate(breakdown, state.ParticipantCounts, state.SellingPrices, tiers)
	if err != nil {
		return nil, err
	}
	missing := pricing.MissingAccommodationNights(breakdown.UpdatedCategories, state.AccommodationDays)
	if missing == nil {
		missing = []int{}
	}
	return &Calculation{
		Currency:                   s.baseCurrency,
		ExchangeRate:               1,
		Breakdown:                  breakdown,
		Pricing:                    result,
		MissingAccommodationNights: missing,
	}, nil
}

// convertCalculation rewrites every amount of calc in place
func convertCalculation(calc *Calculation, targetCurrency string, rate float64) {
	calc.Currency = targetCurrency
	calc.ExchangeRate = rate

	b := &calc.Breakdown
	b.TotalCost *= rate
	b.SharedCost *= rate
	b.UnassignedCost *= rate
	b.IdentityCosts = scaleAmounts(b.IdentityCosts, rate)
	totals := make(map[domain.CategoryID]float64, len(b.CategoryTotals))
	for id, v := range b.CategoryTotals {
		totals[id] = v * rate
	}
	b.CategoryTotals = totals
	for i := range b.AccommodationSummary {
		b.AccommodationSummary[i].TotalCost *= rate
		b.AccommodationSummary[i].PerNightCost *= rate
	}
	for ci := range b.UpdatedCategories {
		category := &b.UpdatedCategories[ci]
		category.Total *= rate
		for ii := range category.Items {
			category.Items[ii].UnitCost *= rate
			category.Items[ii].Subtotal *= rate
		}
	}

	convertRow(&calc.Pricing.Primary, rate)
	for i := range calc.Pricing.Tiers {
		convertRow(&calc.Pricing.Tiers[i], rate)
	}
}

func convertRow(row *pricing.PriceRow, rate float64) {
	row.IdentityCosts = scaleAmounts(row.IdentityCosts, rate)
	row.IdentityProfits = scaleAmounts(row.IdentityProfits, rate)
	prices := make(domain.SellingPrices, len(row.SellingPrices))
	for id, v := range row.SellingPrices {
		prices[id] = v * rate
	}
	row.SellingPrices = prices
	row.TotalCost *= rate
	row.TotalRevenue *= rate
	row.TotalProfit *= rate
	row.LocalUnitPrice *= rate
}

func scaleAmounts(amounts domain.IdentityAmounts, rate float64) domain.IdentityAmounts {
	out := make(domain.IdentityAmounts, len(amounts))
	for id, v := range amounts {
		out[id] = v * rate
	}
	return out
}
