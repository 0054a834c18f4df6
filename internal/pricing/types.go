package pricing

import (
	"errors"
	"fmt"

	"github.com/noah-isme/toko-pricing/internal/money"
)

var (
	// ErrInvalidInput marks validation failures reported by a strategy.
	ErrInvalidInput = errors.New("invalid pricing input")
	// ErrUnknownStrategy indicates a strategy name that is not registered.
	ErrUnknownStrategy = errors.New("unknown pricing strategy")
)

// Input is the per-call pricing request. Amounts are minor units;
// DiscountPercent is 0–100 and TaxRate a 0–1 fraction.
type Input struct {
	BasePrice       money.Money    `json:"basePrice"`
	Quantity        int            `json:"quantity"`
	DiscountPercent *money.Percent `json:"discountPercent,omitempty"`
	DiscountAmount  *money.Money   `json:"discountAmount,omitempty"`
	TaxRate         *money.Rate    `json:"taxRate,omitempty"`
}

// Output holds the rounded pricing breakdown.
//
//	TaxableAmount = Subtotal - Discount
//	Total         = TaxableAmount + Tax
type Output struct {
	Subtotal      money.Money `json:"subtotal"`
	Discount      money.Money `json:"discount"`
	TaxableAmount money.Money `json:"taxableAmount"`
	Tax           money.Money `json:"tax"`
	Total         money.Money `json:"total"`
}

// ValidationError reports a single field-level problem with an Input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ValidationResult is returned by Strategy.Validate.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Error *ValidationError `json:"error,omitempty"`
}

func valid() ValidationResult { return ValidationResult{Valid: true} }

func invalid(field, msg string) ValidationResult {
	return ValidationResult{Error: &ValidationError{Field: field, Message: msg}}
}

// UnknownStrategyError is a configuration error: the caller asked for a
// strategy the registry does not know about.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown pricing strategy %q", e.Name)
}

func (e *UnknownStrategyError) Unwrap() error { return ErrUnknownStrategy }

// check enforces the input domain shared by every strategy: a positive base
// price, at least one unit, and a subtotal no larger than money.MaxAmount.
func (in Input) check() *ValidationError {
	switch {
	case in.BasePrice <= 0:
		return &ValidationError{Field: "basePrice", Message: "must be greater than 0"}
	case in.Quantity < 1:
		return &ValidationError{Field: "quantity", Message: "must be at least 1"}
	case in.BasePrice > money.MaxAmount/money.Money(in.Quantity):
		return &ValidationError{Field: "quantity", Message: "basePrice times quantity exceeds the maximum amount"}
	}
	return nil
}

func (in Input) taxRate() money.Rate {
	if in.TaxRate == nil {
		return 0
	}
	return *in.TaxRate
}

func (in Input) subtotal() money.Money {
	return money.Round(float64(in.BasePrice) * float64(in.Quantity))
}

// finalize clamps the discount into [0, subtotal] and derives the remaining
// fields, each rounded to the minor unit on its own.
func finalize(subtotal, discount money.Money, rate money.Rate) Output {
	discount = money.Clamp(discount, 0, money.Max(subtotal, 0))
	taxable := money.Max(subtotal-discount, 0)
	tax := money.Max(rate.Apply(taxable), 0)
	return Output{
		Subtotal:      subtotal,
		Discount:      discount,
		TaxableAmount: taxable,
		Tax:           tax,
		Total:         money.Add(taxable, tax),
	}
}
