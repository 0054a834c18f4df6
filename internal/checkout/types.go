package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/money"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/tax"
)

// Line is one cart line submitted for a quote.
type Line struct {
	ProductID       *uuid.UUID     `json:"productId,omitempty"`
	CategoryID      *uuid.UUID     `json:"categoryId,omitempty"`
	Title           string         `json:"title" validate:"required,max=200"`
	BasePrice       money.Money    `json:"basePrice" validate:"gt=0,lte=1000000000000000"`
	Quantity        int            `json:"quantity" validate:"gte=1,lte=1000000"`
	Available       *int           `json:"available,omitempty" validate:"omitempty,gte=0"`
	Strategy        string         `json:"strategy,omitempty"`
	DiscountPercent *money.Percent `json:"discountPercent,omitempty"`
	DiscountAmount  *money.Money   `json:"discountAmount,omitempty"`
}

func (l Line) input() pricing.Input {
	return pricing.Input{
		BasePrice:       l.BasePrice,
		Quantity:        l.Quantity,
		DiscountPercent: l.DiscountPercent,
		DiscountAmount:  l.DiscountAmount,
	}
}

// QuoteRequest is the checkout context priced by Service.Quote.
type QuoteRequest struct {
	Lines        []Line      `json:"lines" validate:"required,min=1,max=200,dive"`
	Country      string      `json:"country" validate:"required,len=2,alpha"`
	Shipping     money.Money `json:"shipping" validate:"gte=0,lte=1000000000000000"`
	DiscountCode string      `json:"discountCode,omitempty" validate:"omitempty,max=64"`
}

func (r QuoteRequest) normalized() QuoteRequest {
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	r.DiscountCode = discount.NormalizeCode(r.DiscountCode)
	return r
}

// QuoteLine is the priced form of a Line.
type QuoteLine struct {
	Title    string         `json:"title"`
	Strategy string         `json:"strategy"`
	Quantity int            `json:"quantity"`
	Price    pricing.Output `json:"price"`
}

// Quote is the full checkout breakdown. Totals.Subtotal is the merchandise
// value after line-level discounts.
type Quote struct {
	ID           uuid.UUID            `json:"id"`
	Currency     string               `json:"currency"`
	Lines        []QuoteLine          `json:"lines"`
	Merchandise  pricing.Output       `json:"merchandise"`
	Discount     *discount.Evaluation `json:"discount,omitempty"`
	Tax          tax.Result           `json:"tax"`
	Totals       pricing.Totals       `json:"totals"`
	TotalDisplay string               `json:"totalDisplay"`
	Cached       bool                 `json:"cached"`
}

// OrderTotalRequest feeds pricing.Assemble from the HTTP surface.
type OrderTotalRequest struct {
	Subtotal money.Money   `json:"subtotal" validate:"gte=0,lte=1000000000000000"`
	Shipping money.Money   `json:"shipping" validate:"gte=0,lte=1000000000000000"`
	TaxRate  money.Percent `json:"taxRate" validate:"gte=0,lte=100"`
	Discount money.Money   `json:"discount" validate:"gte=0,lte=1000000000000000"`
}

// LineError is a validation failure attributed to one quote line.
type LineError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidLinesError collects every failing line of a quote.
type InvalidLinesError struct {
	Lines []LineError `json:"lines"`
}

func (e *InvalidLinesError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("line %d: %s: %s", l.Line, l.Field, l.Message))
	}
	return "invalid quote lines: " + strings.Join(parts, "; ")
}

func (e *InvalidLinesError) Unwrap() error { return pricing.ErrInvalidInput }
