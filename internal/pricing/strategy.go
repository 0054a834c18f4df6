package pricing

import (
	"github.com/noah-isme/toko-pricing/internal/money"
)

// Strategy names.
const (
	Standard           = "standard"
	PercentageDiscount = "percentage_discount"
	FixedDiscount      = "fixed_discount"
	TieredPricing      = "tiered_pricing"
)

// Strategy is one interchangeable pricing algorithm. Implementations are
// stateless and safe for concurrent use.
type Strategy interface {
	Name() string
	Description() string
	Validate(in Input) ValidationResult
	Calculate(in Input) Output
}

// StandardStrategy prices without any discount.
type StandardStrategy struct{}

func (StandardStrategy) Name() string        { return Standard }
func (StandardStrategy) Description() string { return "Base price times quantity, no discount" }

func (StandardStrategy) Validate(Input) ValidationResult { return valid() }

func (StandardStrategy) Calculate(in Input) Output {
	return finalize(in.subtotal(), 0, in.taxRate())
}

// PercentageStrategy discounts the subtotal by DiscountPercent.
type PercentageStrategy struct{}

func (PercentageStrategy) Name() string { return PercentageDiscount }
func (PercentageStrategy) Description() string {
	return "Percentage off the subtotal"
}

func (PercentageStrategy) Validate(in Input) ValidationResult {
	if in.DiscountPercent != nil && !in.DiscountPercent.Valid() {
		return invalid("discountPercent", "must be between 0 and 100")
	}
	return valid()
}

func (PercentageStrategy) Calculate(in Input) Output {
	var pct money.Percent
	if in.DiscountPercent != nil {
		pct = *in.DiscountPercent
	}
	subtotal := in.subtotal()
	return finalize(subtotal, pct.Of(subtotal), in.taxRate())
}

// FixedStrategy subtracts a fixed amount, capped at the subtotal.
type FixedStrategy struct{}

func (FixedStrategy) Name() string        { return FixedDiscount }
func (FixedStrategy) Description() string { return "Fixed amount off, capped at the subtotal" }

func (FixedStrategy) Validate(in Input) ValidationResult {
	if in.DiscountAmount != nil && *in.DiscountAmount < 0 {
		return invalid("discountAmount", "must not be negative")
	}
	return valid()
}

func (FixedStrategy) Calculate(in Input) Output {
	var amount money.Money
	if in.DiscountAmount != nil {
		amount = *in.DiscountAmount
	}
	subtotal := in.subtotal()
	return finalize(subtotal, money.Min(amount, subtotal), in.taxRate())
}

// Tier is an inclusive lower quantity bound and the percentage it unlocks.
type Tier struct {
	MinQuantity int           `json:"minQuantity"`
	Percent     money.Percent `json:"percent"`
}

// DefaultTiers are the bulk discount steps.
var DefaultTiers = []Tier{
	{MinQuantity: 100, Percent: 20},
	{MinQuantity: 50, Percent: 15},
	{MinQuantity: 25, Percent: 10},
	{MinQuantity: 10, Percent: 5},
}

// TieredStrategy derives the discount percentage from the quantity. Tier
// bounds are inclusive and the highest bound the quantity meets wins.
type TieredStrategy struct {
	Tiers []Tier
}

func (TieredStrategy) Name() string { return TieredPricing }
func (TieredStrategy) Description() string {
	return "Bulk discount stepped by quantity"
}

func (TieredStrategy) Validate(in Input) ValidationResult {
	if in.Quantity < 1 {
		return invalid("quantity", "must be at least 1")
	}
	return valid()
}

// PercentFor returns the bulk percentage unlocked by qty.
func (s TieredStrategy) PercentFor(qty int) money.Percent {
	tiers := s.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	best := -1
	var pct money.Percent
	for _, t := range tiers {
		if qty >= t.MinQuantity && t.MinQuantity > best {
			best = t.MinQuantity
			pct = t.Percent
		}
	}
	return pct
}

func (s TieredStrategy) Calculate(in Input) Output {
	subtotal := in.subtotal()
	return finalize(subtotal, s.PercentFor(in.Quantity).Of(subtotal), in.taxRate())
}
