package discount

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/money"
)

func intPtr(v int) *int { return &v }

func TestCalculateDiscountAmount(t *testing.T) {
	require.Equal(t, money.Money(500), CalculateDiscountAmount(1_000, Percentage, 50))
	require.Equal(t, money.Money(10_000), CalculateDiscountAmount(10_000, Percentage, 100))
	require.Equal(t, money.Money(10_000), CalculateDiscountAmount(10_000, Percentage, 150))
	require.Equal(t, money.Money(300), CalculateDiscountAmount(1_000, FixedAmount, 300))
	require.Equal(t, money.Money(1_000), CalculateDiscountAmount(1_000, FixedAmount, 5_000))
	require.Equal(t, money.Money(0), CalculateDiscountAmount(0, FixedAmount, 5_000))
	require.Equal(t, money.Money(0), CalculateDiscountAmount(1_000, Type("bogus"), 10))
}

func TestCheckUsage(t *testing.T) {
	require.NoError(t, CheckUsage(Code{Code: "OPEN"}))
	require.NoError(t, CheckUsage(Code{Code: "LEFT", UsageLimit: intPtr(3), UsedCount: 2}))

	err := CheckUsage(Code{Code: "DONE", UsageLimit: intPtr(3), UsedCount: 3})
	require.True(t, errors.Is(err, ErrUsageLimitReached))
	var limitErr *UsageLimitError
	require.True(t, errors.As(err, &limitErr))
	require.Equal(t, 3, limitErr.Limit)
}

func TestCheckUsageDoesNotMutate(t *testing.T) {
	c := Code{Code: "X", UsageLimit: intPtr(5), UsedCount: 1}
	_, err := Evaluate(c, Cart{Total: 1_000}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedCount)
}

func TestCheckApplicabilityWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	from := now.Add(time.Hour)
	to := now.Add(-time.Hour)

	err := CheckApplicability(Code{Code: "SOON", ValidFrom: &from}, Cart{Total: 100}, now)
	require.True(t, errors.Is(err, ErrNotApplicable))
	require.True(t, errors.Is(err, ErrInactive))

	err = CheckApplicability(Code{Code: "OLD", ValidTo: &to}, Cart{Total: 100}, now)
	require.True(t, errors.Is(err, ErrExpired))
}

func TestCheckApplicabilityMinimumSpend(t *testing.T) {
	err := CheckApplicability(Code{Code: "BIG", MinCartValue: 5_000}, Cart{Total: 4_999}, time.Now())
	require.True(t, errors.Is(err, ErrMinimumSpendUnmet))
	var na *NotApplicableError
	require.True(t, errors.As(err, &na))
	require.Equal(t, "cart total must be at least 5000", na.Reason)
}

func TestEligibleSubtotalScoped(t *testing.T) {
	prod := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	other := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	code := Code{ProductIDs: []uuid.UUID{prod}}
	cart := Cart{Total: 120_000, Items: []Item{
		{ProductID: &prod, Subtotal: 50_000},
		{ProductID: &other, Subtotal: 70_000},
	}}
	require.Equal(t, money.Money(50_000), EligibleSubtotal(cart, code))
}

func TestExcludedCategories(t *testing.T) {
	gift := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	apparel := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	code := Code{Code: "NOGIFT", Type: Percentage, Percent: 10, ExcludedCategoryIDs: []uuid.UUID{gift}}

	cart := Cart{Total: 3_000, Items: []Item{
		{CategoryID: &gift, Subtotal: 1_000},
		{CategoryID: &apparel, Subtotal: 2_000},
	}}
	eval, err := Evaluate(code, cart, time.Now())
	require.NoError(t, err)
	require.Equal(t, money.Money(2_000), eval.EligibleAmount)
	require.Equal(t, money.Money(200), eval.Discount)

	onlyGifts := Cart{Total: 1_000, Items: []Item{{CategoryID: &gift, Subtotal: 1_000}}}
	_, err = Evaluate(code, onlyGifts, time.Now())
	require.True(t, errors.Is(err, ErrNoEligibleItems))
}

func TestEvaluateRule(t *testing.T) {
	code := Code{
		Code:       "BULK",
		Type:       FixedAmount,
		Amount:     500,
		Rule:       json.RawMessage(`{">=": [{"var": "cart.quantity"}, 3]}`),
		RuleReason: "buy at least 3 items",
	}
	small := Cart{Total: 2_000, Items: []Item{{Quantity: 2, Subtotal: 2_000}}}
	_, err := Evaluate(code, small, time.Now())
	require.True(t, errors.Is(err, ErrRuleRejected))
	var na *NotApplicableError
	require.True(t, errors.As(err, &na))
	require.Equal(t, "buy at least 3 items", na.Reason)

	big := Cart{Total: 3_000, Items: []Item{{Quantity: 3, Subtotal: 3_000}}}
	eval, err := Evaluate(code, big, time.Now())
	require.NoError(t, err)
	require.Equal(t, money.Money(500), eval.Discount)
}

func TestEvaluateMaxDiscount(t *testing.T) {
	code := Code{Code: "HALF", Type: Percentage, Percent: 50, MaxDiscount: 1_500}
	eval, err := Evaluate(code, Cart{Total: 10_000}, time.Now())
	require.NoError(t, err)
	require.Equal(t, money.Money(1_500), eval.Discount)
}

func TestEvaluateUsageBeforeApplicability(t *testing.T) {
	code := Code{Code: "DONE", UsageLimit: intPtr(1), UsedCount: 1, MinCartValue: 1_000_000}
	_, err := Evaluate(code, Cart{Total: 10}, time.Now())
	require.True(t, errors.Is(err, ErrUsageLimitReached))
	require.False(t, errors.Is(err, ErrNotApplicable))
}
