package obs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500}
	} else {
		sort.Float64s(buckets)
	}
	m := &HTTPMetrics{
		ReqTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"})),
		ReqDur: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"})),
		InFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		})),
	}
	return m
}

// PricingMetrics counts pricing engine outcomes.
type PricingMetrics struct {
	Calculations *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
	Discounts    *prometheus.HistogramVec
	CacheLookups *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing collectors on reg.
func NewPricingMetrics(namespace string, reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PricingMetrics{
		Calculations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_calculations_total",
			Help:      "Pricing calculations by strategy and result (ok, invalid, unknown_strategy).",
		}, []string{"strategy", "result"})),
		Rejections: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rejections_total",
			Help:      "Checkout quotes rejected by business rules, by reason.",
		}, []string{"reason"})),
		Discounts: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_discount_minor_units",
			Help:      "Discount amounts applied to quotes in minor units.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}, []string{"source"})),
		CacheLookups: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_cache_lookups_total",
			Help:      "Quote cache lookups by result (hit, miss, stale, error).",
		}, []string{"result"})),
	}
}

// ObserveCalculation is nil-safe.
func (m *PricingMetrics) ObserveCalculation(strategy, result string) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(strategy, result).Inc()
}

// ObserveRejection is nil-safe.
func (m *PricingMetrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

// ObserveDiscount is nil-safe and ignores zero amounts.
func (m *PricingMetrics) ObserveDiscount(source string, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.Discounts.WithLabelValues(source).Observe(float64(amount))
}

// ObserveCache is nil-safe.
func (m *PricingMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ParseBucketsCSV converts a comma-separated list of bucket boundaries (milliseconds) into floats.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
