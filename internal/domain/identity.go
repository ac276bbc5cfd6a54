package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Identity is a participant class used to divide costs and set selling prices
type Identity string

const (
	IdentityAdult        Identity = "adult"
	IdentityChildWithBed Identity = "child_with_bed"
	IdentityChildNoBed   Identity = "child_no_bed"
	IdentitySingleRoom   Identity = "single_room"
	IdentityInfant       Identity = "infant"
)

// AllIdentities lists every identity in display order
var AllIdentities = []Identity{
	IdentityAdult,
	IdentityChildWithBed,
	IdentityChildNoBed,
	IdentitySingleRoom,
	IdentityInfant,
}

// PayingIdentities are the identities counted in the group headcount.
// Infants travel on a lap and never carry a share of group costs.
var PayingIdentities = []Identity{
	IdentityAdult,
	IdentityChildWithBed,
	IdentityChildNoBed,
	IdentitySingleRoom,
}

// Valid reports whether the identity belongs to the closed set
func (i Identity) Valid() bool {
	for _, known := range AllIdentities {
		if i == known {
			return true
		}
	}
	return false
}

// Paying reports whether the identity is part of the paying headcount
func (i Identity) Paying() bool {
	return i.Valid() && i != IdentityInfant
}

// ParticipantCounts maps each identity to its headcount
type ParticipantCounts map[Identity]int

// Validate rejects unknown identity keys and negative counts
func (p ParticipantCounts) Validate() error {
	for _, id := range sortedKeys(p) {
		if !id.Valid() {
			return &ValidationError{Field: "participant_counts." + string(id), Message: "unknown identity"}
		}
		if p[id] < 0 {
			return &ValidationError{Field: "participant_counts." + string(id), Message: "count must be >= 0"}
		}
	}
	return nil
}

// PayingTotal returns the headcount of every paying identity
func (p ParticipantCounts) PayingTotal() int {
	total := 0
	for _, id := range PayingIdentities {
		total += p[id]
	}
	return total
}

// Clone returns an independent copy
func (p ParticipantCounts) Clone() ParticipantCounts {
	if p == nil {
		return nil
	}
	cp := make(ParticipantCounts, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// UnmarshalJSON rejects unknown identity keys at the boundary
func (p *ParticipantCounts) UnmarshalJSON(b []byte) error {
	raw := map[string]int{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(ParticipantCounts, len(raw))
	for k, v := range raw {
		id := Identity(k)
		if !id.Valid() {
			return fmt.Errorf("participant_counts: unknown identity %q", k)
		}
		out[id] = v
	}
	*p = out
	return nil
}

// SellingPrices maps each identity to a selling price per head
type SellingPrices map[Identity]float64

// Validate rejects unknown identity keys and negative prices
func (s SellingPrices) Validate() error {
	for _, id := range sortedKeys(s) {
		if !id.Valid() {
			return &ValidationError{Field: "selling_prices." + string(id), Message: "unknown identity"}
		}
		if s[id] < 0 {
			return &ValidationError{Field: "selling_prices." + string(id), Message: "price must be >= 0"}
		}
	}
	return nil
}

// Clone returns an independent copy
func (s SellingPrices) Clone() SellingPrices {
	if s == nil {
		return nil
	}
	cp := make(SellingPrices, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// UnmarshalJSON rejects unknown identity keys at the boundary
func (s *SellingPrices) UnmarshalJSON(b []byte) error {
	raw := map[string]float64{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(SellingPrices, len(raw))
	for k, v := range raw {
		id := Identity(k)
		if !id.Valid() {
			return fmt.Errorf("selling_prices: unknown identity %q", k)
		}
		out[id] = v
	}
	*s = out
	return nil
}

// IdentityAmounts is a per-identity amount (cost, profit) keyed by identity
type IdentityAmounts map[Identity]float64

// ZeroAmounts returns a map with every identity set to 0
func ZeroAmounts() IdentityAmounts {
	out := make(IdentityAmounts, len(AllIdentities))
	for _, id := range AllIdentities {
		out[id] = 0
	}
	return out
}

func sortedKeys[V any](m map[Identity]V) []Identity {
	keys := make([]Identity, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
