package discount

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/money"
)

// Item represents a cart line considered for discount scoping.
type Item struct {
	ProductID  *uuid.UUID  `json:"productId,omitempty"`
	CategoryID *uuid.UUID  `json:"categoryId,omitempty"`
	Quantity   int         `json:"quantity"`
	Subtotal   money.Money `json:"subtotal"`
}

// Cart is the checkout context a code is validated against.
type Cart struct {
	Total       money.Money `json:"total"`
	CountryCode string      `json:"country"`
	Items       []Item      `json:"items"`
}

// Evaluation is the outcome of applying a code to a cart.
type Evaluation struct {
	Code           string      `json:"code"`
	Type           Type        `json:"type"`
	EligibleAmount money.Money `json:"eligibleAmount"`
	Discount       money.Money `json:"discount"`
}

// CalculateDiscountAmount returns the discount for cartTotal. Percentage
// values are 0–100; fixed values are minor units. The result is capped at
// cartTotal and never negative.
func CalculateDiscountAmount(cartTotal money.Money, t Type, value float64) money.Money {
	if cartTotal <= 0 || value <= 0 {
		return 0
	}
	var discount money.Money
	switch t {
	case Percentage:
		discount = money.Percent(value).Of(cartTotal)
	case FixedAmount:
		discount = money.Round(value)
	default:
		return 0
	}
	return money.Clamp(discount, 0, cartTotal)
}

// CheckUsage fails with *UsageLimitError once UsedCount has reached UsageLimit.
func CheckUsage(c Code) error {
	if c.UsageLimit != nil && *c.UsageLimit >= 0 && c.UsedCount >= *c.UsageLimit {
		return &UsageLimitError{Code: c.Code, Limit: *c.UsageLimit, Used: c.UsedCount}
	}
	return nil
}

// CheckApplicability verifies the validity window, minimum cart value, scope
// and attached rule. Failures are *NotApplicableError.
func CheckApplicability(c Code, cart Cart, now time.Time) error {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return notApplicable(c.Code, ErrInactive, "")
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return notApplicable(c.Code, ErrExpired, "")
	}
	if cart.Total < c.MinCartValue {
		return notApplicable(c.Code, ErrMinimumSpendUnmet,
			fmt.Sprintf("cart total must be at least %d", c.MinCartValue))
	}
	if EligibleSubtotal(cart, c) <= 0 {
		return notApplicable(c.Code, ErrNoEligibleItems, "")
	}
	if len(c.Rule) > 0 {
		ok, err := EvaluateRule(c.Rule, ruleData(c, cart))
		if err != nil {
			return notApplicable(c.Code, fmt.Errorf("%w: %v", ErrRuleRejected, err), "discount rule could not be evaluated")
		}
		if !ok {
			return notApplicable(c.Code, ErrRuleRejected, c.RuleReason)
		}
	}
	return nil
}

// Evaluate runs the usage and applicability checks and computes the discount.
func Evaluate(c Code, cart Cart, now time.Time) (Evaluation, error) {
	if err := CheckUsage(c); err != nil {
		return Evaluation{}, err
	}
	if err := CheckApplicability(c, cart, now); err != nil {
		return Evaluation{}, err
	}
	eligible := EligibleSubtotal(cart, c)
	discount := CalculateDiscountAmount(eligible, c.Type, c.Value())
	if c.MaxDiscount > 0 {
		discount = money.Min(discount, c.MaxDiscount)
	}
	return Evaluation{Code: c.Code, Type: c.Type, EligibleAmount: eligible, Discount: discount}, nil
}

// EligibleSubtotal sums the lines the code applies to. Lines in excluded
// categories never count. With no product or category scope every other
// line is eligible. Carts without item detail fall back to the cart total.
func EligibleSubtotal(cart Cart, c Code) money.Money {
	if len(cart.Items) == 0 {
		if scoped(c) {
			return 0
		}
		return cart.Total
	}
	var total money.Money
	for _, it := range cart.Items {
		if it.Subtotal <= 0 || excluded(c, it) {
			continue
		}
		if !scoped(c) || matches(c, it) {
			total += it.Subtotal
		}
	}
	return total
}

func scoped(c Code) bool {
	return len(c.ProductIDs) > 0 || len(c.CategoryIDs) > 0
}

func excluded(c Code, it Item) bool {
	return it.CategoryID != nil && contains(c.ExcludedCategoryIDs, *it.CategoryID)
}

func matches(c Code, it Item) bool {
	if len(c.ProductIDs) > 0 && it.ProductID != nil && contains(c.ProductIDs, *it.ProductID) {
		return true
	}
	if len(c.CategoryIDs) > 0 && it.CategoryID != nil && contains(c.CategoryIDs, *it.CategoryID) {
		return true
	}
	return false
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
