package pricing

import (
	"fmt"
	"math"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// PriceRow is the cost, price and profit of every identity for one headcount
type PriceRow struct {
	TierID            string                   `json:"tier_id,omitempty"`
	ParticipantCount  int                      `json:"participant_count"`
	ParticipantCounts domain.ParticipantCounts `json:"participant_counts"`
	IdentityCosts     domain.IdentityAmounts   `json:"identity_costs"`
	SellingPrices     domain.SellingPrices     `json:"selling_prices"`
	IdentityProfits   domain.IdentityAmounts   `json:"identity_profits"`
	TotalCost         float64                  `json:"total_cost"`
	TotalRevenue      float64                  `json:"total_revenue"`
	TotalProfit       float64                  `json:"total_profit"`
	LocalUnitPrice    float64                  `json:"local_unit_price,omitempty"`
}

// Result is the primary price row plus one row per tier, in tier order
type Result struct {
	Primary PriceRow   `json:"primary"`
	Tiers   []PriceRow `json:"tiers"`
}

// ValidateTiers rejects malformed tier input before any computation
func ValidateTiers(tiers []domain.TierPricing) error {
	for i, tier := range tiers {
		if tier.ParticipantCount < 0 {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("tier_pricings[%d].participant_count", i),
				Message: "must be >= 0",
			}
		}
		if tier.LocalUnitPrice < 0 {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("tier_pricings[%d].local_unit_price", i),
				Message: "must be >= 0",
			}
		}
		if err := tier.SellingPrices.Validate(); err != nil {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("tier_pricings[%d]", i),
				Message: err.Error(),
				Err:     err,
			}
		}
	}
	return nil
}

// Calculate derives profits for the primary headcount and for each tier.
// Tier rows are computed independently: a tier only reads the breakdown's
// categories, the primary distribution and its own fields.
func Calculate(b Breakdown, counts domain.ParticipantCounts, selling domain.SellingPrices, tiers []domain.TierPricing) (Result, error) {
	if err := counts.Validate(); err != nil {
		return Result{}, err
	}
	if err := selling.Validate(); err != nil {
		return Result{}, err
	}
	if err := ValidateTiers(tiers); err != nil {
		return Result{}, err
	}

	result := Result{
		Primary: priceRow(b, counts, counts.PayingTotal(), selling, 0),
		Tiers:   make([]PriceRow, 0, len(tiers)),
	}
	for _, tier := range tiers {
		row := TierRow(b, counts, tier)
		result.Tiers = append(result.Tiers, row)
	}
	return result, nil
}

// TierRow computes one tier. The categories are divided again over the
// tier's scaled counts, so per-head costs follow the tier headcount. A tier
// with participant_count 0 yields a zero-filled row.
func TierRow(b Breakdown, primary domain.ParticipantCounts, tier domain.TierPricing) PriceRow {
	if tier.ParticipantCount <= 0 {
		return PriceRow{
			TierID:            tier.ID,
			ParticipantCounts: zeroCounts(),
			IdentityCosts:     domain.ZeroAmounts(),
			SellingPrices:     tier.SellingPrices.Clone(),
			IdentityProfits:   domain.ZeroAmounts(),
		}
	}
	counts := ScaleParticipantCounts(tier.ParticipantCount, primary)
	row := priceRow(Aggregate(b.UpdatedCategories, counts), counts, tier.ParticipantCount, tier.SellingPrices, tier.LocalUnitPrice)
	row.TierID = tier.ID
	row.LocalUnitPrice = tier.LocalUnitPrice
	return row
}

// IdentityCosts returns the full cost of each identity: its per-head cost
// plus an equal share of the shared bucket over payingHeads.
func IdentityCosts(b Breakdown, payingHeads int) domain.IdentityAmounts {
	costs := domain.ZeroAmounts()
	share := 0.0
	if payingHeads > 0 {
		share = b.SharedCost / float64(payingHeads)
	}
	for _, id := range domain.AllIdentities {
		costs[id] = b.IdentityCosts[id]
		if id.Paying() {
			costs[id] += share
		}
	}
	return costs
}

// IdentityProfits is selling price minus cost per identity
func IdentityProfits(selling domain.SellingPrices, costs domain.IdentityAmounts) domain.IdentityAmounts {
	profits := domain.ZeroAmounts()
	for _, id := range domain.AllIdentities {
		profits[id] = selling[id] - costs[id]
	}
	return profits
}

func priceRow(b Breakdown, counts domain.ParticipantCounts, payingHeads int, selling domain.SellingPrices, local float64) PriceRow {
	costs := IdentityCosts(b, payingHeads)
	if local > 0 {
		for _, id := range domain.PayingIdentities {
			costs[id] += local
		}
	}
	row := PriceRow{
		ParticipantCount:  payingHeads,
		ParticipantCounts: counts.Clone(),
		IdentityCosts:     costs,
		SellingPrices:     selling.Clone(),
		IdentityProfits:   IdentityProfits(selling, costs),
	}
	for _, id := range domain.AllIdentities {
		n := float64(counts[id])
		row.TotalCost += n * costs[id]
		row.TotalRevenue += n * selling[id]
	}
	row.TotalProfit = row.TotalRevenue - row.TotalCost
	return row
}

// ScaleParticipantCounts distributes total over the identities keeping the
// primary ratio. Each identity is rounded half-up; infants scale by the same
// ratio. With an empty primary distribution everyone is an adult.
func ScaleParticipantCounts(total int, primary domain.ParticipantCounts) domain.ParticipantCounts {
	out := zeroCounts()
	original := primary.PayingTotal()
	if original <= 0 {
		out[domain.IdentityAdult] = total
		out[domain.IdentityInfant] = primary[domain.IdentityInfant]
		return out
	}
	ratio := float64(total) / float64(original)
	for _, id := range domain.AllIdentities {
		out[id] = int(math.Floor(float64(primary[id])*ratio + 0.5))
	}
	return out
}

func zeroCounts() domain.ParticipantCounts {
	out := make(domain.ParticipantCounts, len(domain.AllIdentities))
	for _, id := range domain.AllIdentities {
		out[id] = 0
	}
	return out
}
