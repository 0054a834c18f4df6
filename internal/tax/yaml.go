package tax

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-pricing/internal/money"
)

type yamlTable struct {
	Rates []yamlEntry `yaml:"rates"`
}

type yamlEntry struct {
	CountryCode string `yaml:"country_code"`
	Rate        string `yaml:"rate"`
	Name        string `yaml:"name"`
	Currency    string `yaml:"currency"`
}

// LoadYAML reads a tax table file. Rates are decimal fractions ("0.18").
func LoadYAML(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tax table: %w", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}

// DecodeYAML parses a tax table document.
func DecodeYAML(r io.Reader) ([]Entry, error) {
	var doc yamlTable
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode tax table: %w", err)
	}
	out := make([]Entry, 0, len(doc.Rates))
	for i, raw := range doc.Rates {
		rate, err := ParseRate(raw.Rate)
		if err != nil {
			return nil, fmt.Errorf("rates[%d] (%s): %w", i, raw.CountryCode, err)
		}
		out = append(out, Entry{CountryCode: raw.CountryCode, Rate: rate, Name: raw.Name, Currency: raw.Currency})
	}
	return out, nil
}

// ParseRate parses a decimal fraction and checks it lies in [0, 1].
func ParseRate(value string) (money.Rate, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", value, err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("rate %s out of range [0,1]", d.String())
	}
	f, _ := d.Float64()
	return money.Rate(f), nil
}
