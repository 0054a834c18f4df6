package tax

import (
	"sort"
	"strings"

	"github.com/noah-isme/toko-pricing/internal/money"
)

// Entry describes the tax rate that applies in one country.
type Entry struct {
	CountryCode string     `json:"country_code" yaml:"country_code"`
	Rate        money.Rate `json:"rate" yaml:"-"`
	Name        string     `json:"name" yaml:"name"`
	Currency    string     `json:"currency,omitempty" yaml:"currency"`
}

// Result is the outcome of a tax resolution.
type Result struct {
	TaxAmount    money.Money `json:"tax_amount"`
	TaxRate      money.Rate  `json:"tax_rate"`
	TaxName      string      `json:"tax_name"`
	CurrencyCode string      `json:"currency_code"`
}

// Policy configures the fallback used when no table entry matches.
type Policy struct {
	DefaultRate   money.Rate
	PrimaryMarket string
	PrimaryName   string
	FallbackName  string
	Currency      string
}

// Resolver maps a country code to a tax rate. It never fails: unknown
// countries resolve to the policy default so tax cannot block checkout.
// A Resolver is immutable after construction.
type Resolver struct {
	entries map[string]Entry
	policy  Policy
}

// NewResolver builds a resolver from the table entries and fallback policy.
// Later entries for the same country replace earlier ones.
func NewResolver(entries []Entry, policy Policy) *Resolver {
	if strings.TrimSpace(policy.PrimaryName) == "" {
		policy.PrimaryName = "Sales Tax"
	}
	if strings.TrimSpace(policy.FallbackName) == "" {
		policy.FallbackName = "VAT"
	}
	policy.PrimaryMarket = normalize(policy.PrimaryMarket)
	policy.Currency = strings.ToUpper(strings.TrimSpace(policy.Currency))
	idx := make(map[string]Entry, len(entries))
	for _, e := range entries {
		code := normalize(e.CountryCode)
		if code == "" {
			continue
		}
		e.CountryCode = code
		idx[code] = e
	}
	return &Resolver{entries: idx, policy: policy}
}

// Lookup returns the entry for the country, falling back to the policy default.
func (r *Resolver) Lookup(countryCode string) Entry {
	code := normalize(countryCode)
	if e, ok := r.entries[code]; ok {
		if e.Name == "" {
			e.Name = r.fallbackName(code)
		}
		if e.Currency == "" {
			e.Currency = r.policy.Currency
		}
		return e
	}
	return Entry{
		CountryCode: code,
		Rate:        r.policy.DefaultRate,
		Name:        r.fallbackName(code),
		Currency:    r.policy.Currency,
	}
}

// Resolve computes tax on subtotal for the given country.
func (r *Resolver) Resolve(countryCode string, subtotal money.Money) Result {
	e := r.Lookup(countryCode)
	if subtotal < 0 {
		subtotal = 0
	}
	return Result{
		TaxAmount:    e.Rate.Apply(subtotal),
		TaxRate:      e.Rate,
		TaxName:      e.Name,
		CurrencyCode: e.Currency,
	}
}

// Entries returns a copy of the configured table sorted by country code.
func (r *Resolver) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountryCode < out[j].CountryCode })
	return out
}

func (r *Resolver) fallbackName(code string) string {
	if code != "" && code == r.policy.PrimaryMarket {
		return r.policy.PrimaryName
	}
	return r.policy.FallbackName
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
