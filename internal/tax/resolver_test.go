package tax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/money"
)

func newTestResolver() *Resolver {
	return NewResolver([]Entry{
		{CountryCode: "in", Rate: 0.18, Name: "GST", Currency: "INR"},
		{CountryCode: "DE", Rate: 0.19, Name: "MwSt"},
	}, Policy{DefaultRate: 0.1, PrimaryMarket: "us", Currency: "usd"})
}

func TestResolveMatch(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve("IN", 10_000)
	require.Equal(t, money.Money(1800), res.TaxAmount)
	require.Equal(t, money.Rate(0.18), res.TaxRate)
	require.Equal(t, "GST", res.TaxName)
	require.Equal(t, "INR", res.CurrencyCode)
}

func TestResolveRoundsToMinorUnit(t *testing.T) {
	r := newTestResolver()
	require.Equal(t, money.Money(1800), r.Resolve("in", 10_001).TaxAmount)
}

func TestResolveFallback(t *testing.T) {
	r := newTestResolver()

	primary := r.Resolve("US", 1_000)
	require.Equal(t, money.Money(100), primary.TaxAmount)
	require.Equal(t, "Sales Tax", primary.TaxName)
	require.Equal(t, "USD", primary.CurrencyCode)

	other := r.Resolve("FR", 1_000)
	require.Equal(t, "VAT", other.TaxName)
	require.Equal(t, money.Rate(0.1), other.TaxRate)

	de := r.Resolve("DE", 1_000)
	require.Equal(t, "USD", de.CurrencyCode)
}

func TestResolveNegativeSubtotal(t *testing.T) {
	require.Equal(t, money.Money(0), newTestResolver().Resolve("IN", -500).TaxAmount)
}

func TestDecodeYAML(t *testing.T) {
	doc := `
rates:
  - country_code: IN
    rate: "0.18"
    name: GST
    currency: INR
  - country_code: GB
    rate: "0.2"
    name: VAT
`
	entries, err := DecodeYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, money.Rate(0.18), entries[0].Rate)
	require.Equal(t, "GB", entries[1].CountryCode)

	_, err = DecodeYAML(strings.NewReader("rates:\n  - country_code: XX\n    rate: \"1.5\"\n"))
	require.Error(t, err)
}

func TestEntriesSortedByCountry(t *testing.T) {
	r := NewResolver([]Entry{
		{CountryCode: "us", Rate: 0.08},
		{CountryCode: "DE", Rate: 0.19},
		{CountryCode: "jp", Rate: 0.1},
		{CountryCode: "FR", Rate: 0.2},
	}, Policy{})
	for i := 0; i < 5; i++ {
		var codes []string
		for _, e := range r.Entries() {
			codes = append(codes, e.CountryCode)
		}
		require.Equal(t, []string{"DE", "FR", "JP", "US"}, codes)
	}
}
