package pricing

import "github.com/noah-isme/toko-pricing/internal/money"

// Totals is the order-level breakdown.
type Totals struct {
	Subtotal money.Money `json:"subtotal"`
	Shipping money.Money `json:"shipping"`
	Tax      money.Money `json:"tax"`
	Discount money.Money `json:"discount"`
	Total    money.Money `json:"total"`
}

// AssembleOrderTotal folds subtotal, shipping, tax and an order discount into
// the amount to charge. Tax is round(subtotal × taxRate / 100). A discount
// larger than the order is absorbed: the total never drops below zero.
func AssembleOrderTotal(subtotal, shipping money.Money, taxRate money.Percent, discount money.Money) money.Money {
	return Assemble(subtotal, shipping, taxRate.Of(subtotal), discount).Total
}

// Assemble is AssembleOrderTotal with an already computed tax amount.
func Assemble(subtotal, shipping, tax, discount money.Money) Totals {
	if shipping < 0 {
		shipping = 0
	}
	if discount < 0 {
		discount = 0
	}
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    money.Max(money.Add(subtotal, shipping, tax, -discount), 0),
	}
}

// Fold sums per-line outputs into a merchandise-level output. Sums saturate
// rather than wrap.
func Fold(lines []Output) Output {
	var sum Output
	for _, l := range lines {
		sum.Subtotal = money.Add(sum.Subtotal, l.Subtotal)
		sum.Discount = money.Add(sum.Discount, l.Discount)
		sum.TaxableAmount = money.Add(sum.TaxableAmount, l.TaxableAmount)
		sum.Tax = money.Add(sum.Tax, l.Tax)
		sum.Total = money.Add(sum.Total, l.Total)
	}
	return sum
}
