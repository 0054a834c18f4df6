package discount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/money"
)

// Type selects how a discount code's value is interpreted.
type Type string

const (
	// Percentage takes Percent (0–100) of the eligible subtotal.
	Percentage Type = "percentage"
	// FixedAmount subtracts Amount minor units, capped at the eligible subtotal.
	FixedAmount Type = "fixed_amount"
)

// ParseType normalises a type name.
func ParseType(v string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "percentage", "percent":
		return Percentage, nil
	case "fixed_amount", "fixed":
		return FixedAmount, nil
	default:
		return "", fmt.Errorf("unknown discount type %q", v)
	}
}

var (
	// ErrNotFound is returned when a code does not exist.
	ErrNotFound = errors.New("discount code not found")
	// ErrUsageLimitReached indicates the code has exhausted its usage quota.
	ErrUsageLimitReached = errors.New("discount usage limit reached")
	// ErrNotApplicable is the sentinel for every applicability failure.
	ErrNotApplicable = errors.New("discount not applicable")
	// ErrInactive is returned before the validity window opens.
	ErrInactive = errors.New("discount not active yet")
	// ErrExpired is returned after the validity window closes.
	ErrExpired = errors.New("discount expired")
	// ErrMinimumSpendUnmet indicates the cart total is below the code minimum.
	ErrMinimumSpendUnmet = errors.New("discount minimum cart value not met")
	// ErrNoEligibleItems indicates no cart line falls within the code scope.
	ErrNoEligibleItems = errors.New("no eligible items for discount")
	// ErrRuleRejected indicates the attached JSONLogic rule evaluated false.
	ErrRuleRejected = errors.New("discount rule rejected cart")
)

// Code is a read-only view of a discount code owned by the admin tooling.
// This package never changes UsedCount.
type Code struct {
	Code                string          `json:"code"`
	Type                Type            `json:"type"`
	Percent             money.Percent   `json:"percent,omitempty"`
	Amount              money.Money     `json:"amount,omitempty"`
	MaxDiscount         money.Money     `json:"maxDiscount,omitempty"`
	UsageLimit          *int            `json:"usageLimit,omitempty"`
	UsedCount           int             `json:"usedCount"`
	MinCartValue        money.Money     `json:"minCartValue,omitempty"`
	ProductIDs          []uuid.UUID     `json:"productIds,omitempty"`
	CategoryIDs         []uuid.UUID     `json:"categoryIds,omitempty"`
	ExcludedCategoryIDs []uuid.UUID     `json:"excludedCategoryIds,omitempty"`
	ValidFrom           *time.Time      `json:"validFrom,omitempty"`
	ValidTo             *time.Time      `json:"validTo,omitempty"`
	Rule                json.RawMessage `json:"rule,omitempty"`
	RuleReason          string          `json:"ruleReason,omitempty"`
}

// Value returns the type-specific value as passed to CalculateDiscountAmount.
func (c Code) Value() float64 {
	if c.Type == Percentage {
		return float64(c.Percent)
	}
	return float64(c.Amount)
}

// UsageLimitError reports an exhausted code.
type UsageLimitError struct {
	Code  string `json:"code"`
	Limit int    `json:"limit"`
	Used  int    `json:"used"`
}

func (e *UsageLimitError) Error() string {
	return fmt.Sprintf("discount %s: usage limit %d reached", e.Code, e.Limit)
}

func (e *UsageLimitError) Unwrap() error { return ErrUsageLimitReached }

// NotApplicableError carries a human-readable reason the code cannot be used.
type NotApplicableError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *NotApplicableError) Error() string {
	return fmt.Sprintf("discount %s not applicable: %s", e.Code, e.Reason)
}

// Is matches ErrNotApplicable as well as the specific cause.
func (e *NotApplicableError) Is(target error) bool {
	return target == ErrNotApplicable
}

func (e *NotApplicableError) Unwrap() error { return e.Err }

func notApplicable(code string, cause error, reason string) error {
	if reason == "" {
		reason = cause.Error()
	}
	return &NotApplicableError{Code: code, Reason: reason, Err: cause}
}
