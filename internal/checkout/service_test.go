package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/money"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/stock"
	"github.com/noah-isme/toko-pricing/internal/tax"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func pctPtr(v money.Percent) *money.Percent { return &v }

func newTestService(t *testing.T, cache *Cache, metrics *obs.PricingMetrics) *Service {
	t.Helper()
	resolver := tax.NewResolver([]tax.Entry{
		{CountryCode: "DE", Rate: 0.19, Name: "MwSt", Currency: "EUR"},
		{CountryCode: "US", Rate: 0.08, Name: "Sales Tax", Currency: "USD"},
	}, tax.Policy{DefaultRate: 0.1, PrimaryMarket: "US", Currency: "USD"})
	codes := discount.NewMemoryStore(
		discount.Code{Code: "SAVE10", Type: discount.Percentage, Percent: 10},
		discount.Code{Code: "SPENT", Type: discount.FixedAmount, Amount: 500, UsageLimit: intPtr(1), UsedCount: 1},
		discount.Code{Code: "BIGSPEND", Type: discount.FixedAmount, Amount: 500, MinCartValue: 100_000},
	)
	svc, err := NewService(ServiceConfig{
		Registry:  pricing.NewRegistry(),
		Taxes:     resolver,
		Discounts: codes,
		Cache:     cache,
		Metrics:   metrics,
		Logger:    zerolog.Nop(),
		Currency:  "USD",
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func sampleQuote() QuoteRequest {
	return QuoteRequest{
		Lines: []Line{
			{Title: "Mug", BasePrice: 1_000, Quantity: 2},
			{Title: "Sticker", BasePrice: 500, Quantity: 10, Strategy: pricing.TieredPricing},
		},
		Country:      "de",
		Shipping:     500,
		DiscountCode: " save10 ",
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceConfig{Taxes: tax.NewResolver(nil, tax.Policy{})})
	require.Error(t, err)
	_, err = NewService(ServiceConfig{Registry: pricing.NewRegistry()})
	require.Error(t, err)
}

func TestQuoteCombinesEveryComponent(t *testing.T) {
	svc := newTestService(t, nil, nil)

	q, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)

	require.Len(t, q.Lines, 2)
	require.Equal(t, pricing.Standard, q.Lines[0].Strategy)
	require.Equal(t, money.Money(2_000), q.Lines[0].Price.Total)
	require.Equal(t, pricing.TieredPricing, q.Lines[1].Strategy)
	require.Equal(t, money.Money(250), q.Lines[1].Price.Discount)

	require.Equal(t, money.Money(6_750), q.Merchandise.TaxableAmount)
	require.NotNil(t, q.Discount)
	require.Equal(t, "SAVE10", q.Discount.Code)
	require.Equal(t, money.Money(675), q.Discount.Discount)

	require.Equal(t, "MwSt", q.Tax.TaxName)
	require.Equal(t, money.Money(1_283), q.Tax.TaxAmount)

	require.Equal(t, pricing.Totals{
		Subtotal: 6_750,
		Shipping: 500,
		Tax:      1_283,
		Discount: 675,
		Total:    7_858,
	}, q.Totals)
	require.Equal(t, "EUR", q.Currency)
	require.Equal(t, "78.58 EUR", q.TotalDisplay)
	require.False(t, q.Cached)
}

func TestQuoteWithoutCodeUsesDefaultTax(t *testing.T) {
	svc := newTestService(t, nil, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{
		Lines:   []Line{{Title: "Book", BasePrice: 2_500, Quantity: 1}},
		Country: "FR",
	})
	require.NoError(t, err)
	require.Nil(t, q.Discount)
	require.Equal(t, "VAT", q.Tax.TaxName)
	require.Equal(t, money.Money(250), q.Tax.TaxAmount)
	require.Equal(t, money.Money(2_750), q.Totals.Total)
	require.Equal(t, "USD", q.Currency)
}

func TestQuoteReportsEveryShortItem(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := obs.NewPricingMetrics("test", reg)
	svc := newTestService(t, nil, metrics)

	_, err := svc.Quote(context.Background(), QuoteRequest{
		Lines: []Line{
			{Title: "Mug", BasePrice: 1_000, Quantity: 3, Available: intPtr(1)},
			{Title: "Plate", BasePrice: 1_000, Quantity: 1, Available: intPtr(5)},
			{Title: "Bowl", BasePrice: 1_000, Quantity: 2, Available: intPtr(0)},
		},
		Country: "US",
	})
	require.True(t, errors.Is(err, stock.ErrInsufficientStock))
	var shortage *stock.ShortageError
	require.True(t, errors.As(err, &shortage))
	require.Len(t, shortage.Items, 2)
	require.Equal(t, "Mug", shortage.Items[0].Title)
	require.Equal(t, "Bowl", shortage.Items[1].Title)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejections.WithLabelValues("insufficient_stock")))
}

func TestQuoteCollectsAllLineErrors(t *testing.T) {
	svc := newTestService(t, nil, nil)
	bad := money.Money(-5)

	_, err := svc.Quote(context.Background(), QuoteRequest{
		Lines: []Line{
			{Title: "A", BasePrice: 1_000, Quantity: 1, Strategy: pricing.PercentageDiscount, DiscountPercent: pctPtr(150)},
			{Title: "B", BasePrice: 1_000, Quantity: 1},
			{Title: "C", BasePrice: 1_000, Quantity: 1, Strategy: pricing.FixedDiscount, DiscountAmount: &bad},
		},
		Country: "US",
	})
	require.True(t, errors.Is(err, pricing.ErrInvalidInput))
	var lines *InvalidLinesError
	require.True(t, errors.As(err, &lines))
	require.Len(t, lines.Lines, 2)
	require.Equal(t, 0, lines.Lines[0].Line)
	require.Equal(t, "discountPercent", lines.Lines[0].Field)
	require.Equal(t, 2, lines.Lines[1].Line)
	require.Equal(t, "discountAmount", lines.Lines[1].Field)
}

func TestQuoteUnknownStrategyIsConfigurationError(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Quote(context.Background(), QuoteRequest{
		Lines:   []Line{{Title: "A", BasePrice: 1_000, Quantity: 1, Strategy: "bogus"}},
		Country: "US",
	})
	require.True(t, errors.Is(err, pricing.ErrUnknownStrategy))
	require.Equal(t, "configuration", string(AppErrorFrom(err).Kind))
}

func TestQuoteDiscountFailures(t *testing.T) {
	svc := newTestService(t, nil, nil)
	base := QuoteRequest{
		Lines:   []Line{{Title: "A", BasePrice: 1_000, Quantity: 1}},
		Country: "US",
	}

	req := base
	req.DiscountCode = "NOPE"
	_, err := svc.Quote(context.Background(), req)
	require.True(t, errors.Is(err, discount.ErrNotFound))

	req.DiscountCode = "SPENT"
	_, err = svc.Quote(context.Background(), req)
	require.True(t, errors.Is(err, discount.ErrUsageLimitReached))

	req.DiscountCode = "BIGSPEND"
	_, err = svc.Quote(context.Background(), req)
	require.True(t, errors.Is(err, discount.ErrNotApplicable))
	require.True(t, errors.Is(err, discount.ErrMinimumSpendUnmet))
}

func TestQuoteIsMemoised(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	metrics := obs.NewPricingMetrics("test", reg)
	svc := newTestService(t, NewCache(client, time.Minute), metrics)

	first, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Totals, second.Totals)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")))

	mr.FastForward(2 * time.Minute)
	third, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)
	require.False(t, third.Cached)
}

func TestQuoteCacheRevalidatesDiscountCode(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codes := discount.NewMemoryStore(discount.Code{Code: "SAVE10", Type: discount.Percentage, Percent: 10, UsageLimit: intPtr(5)})
	reg := prometheus.NewRegistry()
	metrics := obs.NewPricingMetrics("test", reg)
	svc, err := NewService(ServiceConfig{
		Registry:  pricing.NewRegistry(),
		Taxes:     tax.NewResolver([]tax.Entry{{CountryCode: "DE", Rate: 0.19, Name: "MwSt", Currency: "EUR"}}, tax.Policy{Currency: "USD"}),
		Discounts: codes,
		Cache:     NewCache(client, time.Hour),
		Metrics:   metrics,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	first, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)
	require.NotNil(t, first.Discount)

	second, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)
	require.True(t, second.Cached)

	codes.Replace([]discount.Code{{Code: "SAVE10", Type: discount.Percentage, Percent: 10, UsageLimit: intPtr(5), UsedCount: 5}})
	_, err = svc.Quote(context.Background(), sampleQuote())
	require.ErrorIs(t, err, discount.ErrUsageLimitReached)

	expired := fixedNow.Add(-time.Hour)
	codes.Replace([]discount.Code{{Code: "SAVE10", Type: discount.Percentage, Percent: 10, ValidTo: &expired}})
	_, err = svc.Quote(context.Background(), sampleQuote())
	require.ErrorIs(t, err, discount.ErrExpired)

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("stale")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")))
}

func TestQuoteCacheFailureDoesNotBlock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	svc := newTestService(t, NewCache(client, time.Minute), nil)
	mr.Close()

	q, err := svc.Quote(context.Background(), sampleQuote())
	require.NoError(t, err)
	require.Equal(t, money.Money(7_858), q.Totals.Total)
}

func TestOrderTotalAndTax(t *testing.T) {
	svc := newTestService(t, nil, nil)

	totals := svc.OrderTotal(OrderTotalRequest{Subtotal: 10_000, Shipping: 1_000, TaxRate: 10, Discount: 500})
	require.Equal(t, money.Money(1_000), totals.Tax)
	require.Equal(t, money.Money(11_500), totals.Total)

	totals = svc.OrderTotal(OrderTotalRequest{Subtotal: 1_000, Discount: 5_000})
	require.Equal(t, money.Money(0), totals.Total)

	res := svc.ResolveTax("us", 10_000)
	require.Equal(t, money.Money(800), res.TaxAmount)
	require.Equal(t, "Sales Tax", res.TaxName)
}

func TestCalculateRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := obs.NewPricingMetrics("test", reg)
	svc := newTestService(t, nil, metrics)

	res, err := svc.Calculate("", pricing.Input{BasePrice: 1_000, Quantity: 3})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, pricing.Standard, res.Strategy)

	res, err = svc.Calculate(pricing.PercentageDiscount, pricing.Input{BasePrice: 1_000, Quantity: 1, DiscountPercent: pctPtr(101)})
	require.NoError(t, err)
	require.False(t, res.Success)

	_, err = svc.Calculate("nope", pricing.Input{BasePrice: 1_000, Quantity: 1})
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Calculations.WithLabelValues(pricing.Standard, "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Calculations.WithLabelValues(pricing.PercentageDiscount, "invalid")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Calculations.WithLabelValues("nope", "unknown_strategy")))
}
