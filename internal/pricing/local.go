package pricing

import (
	"fmt"
	"sort"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// LocalTier is one step of a local-agent price ladder: from Participants
// heads upwards the agent charges UnitPrice per paying head.
type LocalTier struct {
	Participants int     `json:"participants" yaml:"participants"`
	UnitPrice    float64 `json:"unit_price" yaml:"unit_price"`
}

// MatchLocalTier returns the index into the ascending ladder that applies to
// headcount: the last step whose Participants is <= headcount, else 0.
func MatchLocalTier(sorted []LocalTier, headcount int) int {
	idx := 0
	for i, t := range sorted {
		if t.Participants <= headcount {
			idx = i
		}
	}
	return idx
}

// SortLocalTiers returns the ladder sorted by participants, ascending
func SortLocalTiers(ladder []LocalTier) []LocalTier {
	sorted := append([]LocalTier(nil), ladder...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Participants < sorted[j].Participants
	})
	return sorted
}

// LocalTiers turns a local price ladder into tier pricings. The first tier
// uses the current paying headcount with the ladder price matching it; the
// rest use the ladder steps as given. Every tier keeps the current selling
// prices. newID supplies tier ids.
func LocalTiers(ladder []LocalTier, counts domain.ParticipantCounts, selling domain.SellingPrices, newID func() string) ([]domain.TierPricing, error) {
	for i, t := range ladder {
		if t.Participants < 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("local_tiers[%d].participants", i), Message: "must be >= 0"}
		}
		if t.UnitPrice < 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("local_tiers[%d].unit_price", i), Message: "must be >= 0"}
		}
	}
	if err := counts.Validate(); err != nil {
		return nil, err
	}
	if err := selling.Validate(); err != nil {
		return nil, err
	}

	sorted := SortLocalTiers(ladder)
	total := counts.PayingTotal()
	current := 0.0
	if len(sorted) > 0 {
		current = sorted[MatchLocalTier(sorted, total)].UnitPrice
	}

	tiers := make([]domain.TierPricing, 0, len(sorted))
	for i, step := range sorted {
		tier := domain.TierPricing{
			ID:               newID(),
			ParticipantCount: step.Participants,
			SellingPrices:    selling.Clone(),
			LocalUnitPrice:   step.UnitPrice,
		}
		if i == 0 {
			tier.ParticipantCount = total
			tier.LocalUnitPrice = current
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}
