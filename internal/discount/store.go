package discount

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-pricing/internal/money"
)

// Finder is the read-only view of the discount-code collaborator.
type Finder interface {
	FindByCode(ctx context.Context, code string) (Code, error)
}

// NormalizeCode canonicalises a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MemoryStore is a Finder over a fixed set of codes.
type MemoryStore struct {
	mu    sync.RWMutex
	codes map[string]Code
}

// NewMemoryStore indexes codes by normalised code.
func NewMemoryStore(codes ...Code) *MemoryStore {
	s := &MemoryStore{codes: make(map[string]Code, len(codes))}
	s.Replace(codes)
	return s
}

// Replace swaps the stored codes atomically.
func (s *MemoryStore) Replace(codes []Code) {
	idx := make(map[string]Code, len(codes))
	for _, c := range codes {
		c.Code = NormalizeCode(c.Code)
		idx[c.Code] = c
	}
	s.mu.Lock()
	s.codes = idx
	s.mu.Unlock()
}

// FindByCode implements Finder.
func (s *MemoryStore) FindByCode(_ context.Context, code string) (Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.codes[NormalizeCode(code)]
	if !ok {
		return Code{}, ErrNotFound
	}
	return c, nil
}

// All returns every stored code sorted by code.
func (s *MemoryStore) All() []Code {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Code, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

type yamlCodes struct {
	Codes []yamlCode `yaml:"codes"`
}

type yamlCode struct {
	Code                string     `yaml:"code"`
	Type                string     `yaml:"type"`
	Value               string     `yaml:"value"`
	MaxDiscount         int64      `yaml:"max_discount"`
	UsageLimit          *int       `yaml:"usage_limit"`
	UsedCount           int        `yaml:"used_count"`
	MinCartValue        int64      `yaml:"min_cart_value"`
	ProductIDs          []string   `yaml:"product_ids"`
	CategoryIDs         []string   `yaml:"category_ids"`
	ExcludedCategoryIDs []string   `yaml:"excluded_category_ids"`
	ValidFrom           *time.Time `yaml:"valid_from"`
	ValidTo             *time.Time `yaml:"valid_to"`
	Rule                any        `yaml:"rule"`
	RuleReason          string     `yaml:"rule_reason"`
}

// LoadYAML reads discount codes from a seed file.
func LoadYAML(path string) ([]Code, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open discount codes: %w", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}

// DecodeYAML parses a discount code document. Percentage values are 0–100;
// fixed_amount values are minor units.
func DecodeYAML(r io.Reader) ([]Code, error) {
	var doc yamlCodes
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode discount codes: %w", err)
	}
	out := make([]Code, 0, len(doc.Codes))
	for i, raw := range doc.Codes {
		c, err := raw.toCode()
		if err != nil {
			return nil, fmt.Errorf("codes[%d] (%s): %w", i, raw.Code, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (y yamlCode) toCode() (Code, error) {
	t, err := ParseType(y.Type)
	if err != nil {
		return Code{}, err
	}
	c := Code{
		Code:         NormalizeCode(y.Code),
		Type:         t,
		MaxDiscount:  y.MaxDiscount,
		UsageLimit:   y.UsageLimit,
		UsedCount:    y.UsedCount,
		MinCartValue: y.MinCartValue,
		ValidFrom:    y.ValidFrom,
		ValidTo:      y.ValidTo,
		RuleReason:   y.RuleReason,
	}
	if c.Code == "" {
		return Code{}, fmt.Errorf("code is required")
	}
	if err := c.setValue(y.Value); err != nil {
		return Code{}, err
	}
	if c.ProductIDs, err = parseUUIDs(y.ProductIDs); err != nil {
		return Code{}, err
	}
	if c.CategoryIDs, err = parseUUIDs(y.CategoryIDs); err != nil {
		return Code{}, err
	}
	if c.ExcludedCategoryIDs, err = parseUUIDs(y.ExcludedCategoryIDs); err != nil {
		return Code{}, err
	}
	if y.Rule != nil {
		raw, err := json.Marshal(y.Rule)
		if err != nil {
			return Code{}, fmt.Errorf("encode rule: %w", err)
		}
		c.Rule = raw
	}
	return c, nil
}

func (c *Code) setValue(value string) error {
	switch c.Type {
	case Percentage:
		d, err := parsePercent(value)
		if err != nil {
			return err
		}
		c.Percent = d
	case FixedAmount:
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("amount must not be negative")
		}
		c.Amount = v
	}
	return nil
}

func parsePercent(value string) (money.Percent, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid percent %q: %w", value, err)
	}
	p, _ := d.Float64()
	if !money.Percent(p).Valid() {
		return 0, fmt.Errorf("percent %s out of range [0,100]", d.String())
	}
	return money.Percent(p), nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", v, err)
		}
		out = append(out, id)
	}
	return out, nil
}
