package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/money"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/stock"
	"github.com/noah-isme/toko-pricing/internal/tax"
)

// ServiceConfig wires the collaborators of a Service.
type ServiceConfig struct {
	Registry  *pricing.Registry
	Taxes     *tax.Resolver
	Discounts discount.Finder
	Cache     *Cache
	Metrics   *obs.PricingMetrics
	Logger    zerolog.Logger
	Currency  string
	Now       func() time.Time
}

// Service orchestrates stock, strategy pricing, discount codes and tax into
// a checkout quote. It holds no mutable state of its own.
type Service struct {
	registry  *pricing.Registry
	taxes     *tax.Resolver
	discounts discount.Finder
	cache     *Cache
	metrics   *obs.PricingMetrics
	logger    zerolog.Logger
	currency  string
	now       func() time.Time
	quotes    metric.Int64Counter
}

// NewService validates cfg and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, errors.New("checkout: pricing registry is required")
	}
	if cfg.Taxes == nil {
		return nil, errors.New("checkout: tax resolver is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	quotes, err := obs.Meter("checkout").Int64Counter("checkout.quotes",
		metric.WithDescription("Checkout quotes by outcome"))
	if err != nil {
		return nil, err
	}
	return &Service{
		registry:  cfg.Registry,
		taxes:     cfg.Taxes,
		discounts: cfg.Discounts,
		cache:     cfg.Cache,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		currency:  cfg.Currency,
		now:       cfg.Now,
		quotes:    quotes,
	}, nil
}

// Strategies lists the registered pricing strategies.
func (s *Service) Strategies() []pricing.Descriptor {
	return s.registry.Strategies()
}

// DefaultStrategy returns the strategy used when a request names none.
func (s *Service) DefaultStrategy() string {
	return s.registry.DefaultName()
}

// Calculate prices a single input with the named strategy, or the default
// one when name is empty.
func (s *Service) Calculate(name string, in pricing.Input) (pricing.Result, error) {
	if name == "" {
		name = s.registry.DefaultName()
	}
	res, err := s.registry.CalculatePrice(in, name)
	switch {
	case err != nil:
		s.metrics.ObserveCalculation(name, "unknown_strategy")
	case !res.Success:
		s.metrics.ObserveCalculation(name, "invalid")
	default:
		s.metrics.ObserveCalculation(name, "ok")
	}
	return res, err
}

// ResolveTax returns the tax due on subtotal in country.
func (s *Service) ResolveTax(country string, subtotal money.Money) tax.Result {
	return s.taxes.Resolve(country, subtotal)
}

// OrderTotal assembles an order total from a percentage tax rate.
func (s *Service) OrderTotal(req OrderTotalRequest) pricing.Totals {
	return pricing.Assemble(req.Subtotal, req.Shipping, req.TaxRate.Of(req.Subtotal), req.Discount)
}

// CheckStock reports every short item as one *stock.ShortageError.
func (s *Service) CheckStock(items []stock.Item) error {
	if err := stock.Check(items); err != nil {
		s.metrics.ObserveRejection("insufficient_stock")
		return err
	}
	return nil
}

// CheckDiscount looks up code and evaluates it against cart.
func (s *Service) CheckDiscount(ctx context.Context, code string, cart discount.Cart) (discount.Evaluation, error) {
	if s.discounts == nil {
		return discount.Evaluation{}, discount.ErrNotFound
	}
	c, err := s.discounts.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, discount.ErrNotFound) {
			s.metrics.ObserveRejection("discount_not_found")
		}
		return discount.Evaluation{}, err
	}
	eval, err := discount.Evaluate(c, cart, s.now())
	if err != nil {
		s.metrics.ObserveRejection(discountRejection(err))
		return discount.Evaluation{}, err
	}
	return eval, nil
}

// Quote prices req end to end: stock, per-line strategies, discount code,
// tax and the order total. Successful quotes are memoised for the cache TTL.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Quote")
	defer span.End()

	req = req.normalized()
	span.SetAttributes(
		attribute.Int("checkout.lines", len(req.Lines)),
		attribute.String("checkout.country", req.Country),
		attribute.Bool("checkout.discount_code", req.DiscountCode != ""),
	)

	key, err := QuoteKey(req)
	if err != nil {
		key = ""
	}
	var cached Quote
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("quote cache read failed")
		s.metrics.ObserveCache("error")
	case hit && s.discountStillApplies(ctx, req, cached):
		s.metrics.ObserveCache("hit")
		span.SetAttributes(attribute.Bool("checkout.cached", true))
		s.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "cached")))
		cached.Cached = true
		return cached, nil
	case hit:
		s.metrics.ObserveCache("stale")
	case s.cache.enabled():
		s.metrics.ObserveCache("miss")
	}

	q, err := s.quote(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "rejected")))
		return Quote{}, err
	}
	s.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	if err := s.cache.SetJSON(ctx, key, q); err != nil {
		s.logger.Warn().Err(err).Msg("quote cache write failed")
	}
	return q, nil
}

func (s *Service) quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if err := s.checkLineStock(req.Lines); err != nil {
		return Quote{}, err
	}

	lines := make([]QuoteLine, 0, len(req.Lines))
	outputs := make([]pricing.Output, 0, len(req.Lines))
	var invalid []LineError
	for i, l := range req.Lines {
		res, err := s.Calculate(l.Strategy, l.input())
		if err != nil {
			return Quote{}, err
		}
		if !res.Success {
			le := LineError{Line: i, Field: "input", Message: "invalid"}
			if res.Error != nil {
				le.Field, le.Message = res.Error.Field, res.Error.Message
			}
			invalid = append(invalid, le)
			continue
		}
		lines = append(lines, QuoteLine{Title: l.Title, Strategy: res.Strategy, Quantity: l.Quantity, Price: *res.Output})
		outputs = append(outputs, *res.Output)
	}
	if len(invalid) > 0 {
		return Quote{}, &InvalidLinesError{Lines: invalid}
	}

	merchandise := pricing.Fold(outputs)
	subtotal := merchandise.TaxableAmount

	var eval *discount.Evaluation
	var codeDiscount money.Money
	if req.DiscountCode != "" {
		e, err := s.CheckDiscount(ctx, req.DiscountCode, buildDiscountCart(req, lines, subtotal))
		if err != nil {
			return Quote{}, err
		}
		eval = &e
		codeDiscount = e.Discount
		s.metrics.ObserveDiscount("code", codeDiscount)
	}

	taxResult := s.taxes.Resolve(req.Country, subtotal)
	totals := pricing.Assemble(subtotal, req.Shipping, taxResult.TaxAmount, codeDiscount)
	currency := taxResult.CurrencyCode
	if currency == "" {
		currency = s.currency
	}

	return Quote{
		ID:           uuid.New(),
		Currency:     currency,
		Lines:        lines,
		Merchandise:  merchandise,
		Discount:     eval,
		Tax:          taxResult,
		Totals:       totals,
		TotalDisplay: money.Amount{Value: totals.Total, Currency: currency}.Format(),
	}, nil
}

// buildDiscountCart builds the cart a code is evaluated against. lines are the
// priced lines of req, in order.
func buildDiscountCart(req QuoteRequest, lines []QuoteLine, subtotal money.Money) discount.Cart {
	items := make([]discount.Item, 0, len(lines))
	for i, l := range lines {
		items = append(items, discount.Item{
			ProductID:  req.Lines[i].ProductID,
			CategoryID: req.Lines[i].CategoryID,
			Quantity:   l.Quantity,
			Subtotal:   l.Price.TaxableAmount,
		})
	}
	return discount.Cart{Total: subtotal, CountryCode: req.Country, Items: items}
}

// discountStillApplies re-evaluates the code of a cached quote against the
// current store state. Usage counts and validity windows move independently
// of the cache TTL, so a code that no longer yields the same evaluation makes
// the cached quote stale.
func (s *Service) discountStillApplies(ctx context.Context, req QuoteRequest, q Quote) bool {
	if q.Discount == nil {
		return true
	}
	if s.discounts == nil || len(q.Lines) != len(req.Lines) {
		return false
	}
	c, err := s.discounts.FindByCode(ctx, req.DiscountCode)
	if err != nil {
		return false
	}
	eval, err := discount.Evaluate(c, buildDiscountCart(req, q.Lines, q.Totals.Subtotal), s.now())
	return err == nil && eval == *q.Discount
}

// checkLineStock skips lines without an availability figure.
func (s *Service) checkLineStock(lines []Line) error {
	items := make([]stock.Item, 0, len(lines))
	for _, l := range lines {
		if l.Available == nil {
			continue
		}
		items = append(items, stock.Item{Title: l.Title, Requested: l.Quantity, Available: *l.Available})
	}
	return s.CheckStock(items)
}

func discountRejection(err error) string {
	var usage *discount.UsageLimitError
	if errors.As(err, &usage) {
		return "discount_usage_limit"
	}
	return "discount_not_applicable"
}
