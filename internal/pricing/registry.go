package pricing

import (
	"sort"
	"strings"
)

// Descriptor names and describes a registered strategy.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result is the uniform outcome of CalculatePrice for a known strategy.
type Result struct {
	Success  bool             `json:"success"`
	Strategy string           `json:"strategy"`
	Output   *Output          `json:"output,omitempty"`
	Error    *ValidationError `json:"error,omitempty"`
}

// Registry resolves strategies by name. It is built once and never mutated,
// so it is safe to share between goroutines.
type Registry struct {
	strategies  map[string]Strategy
	defaultName string
}

// Option customises a Registry.
type Option func(*Registry)

// WithDefault sets the strategy used when CalculatePrice gets an empty name.
func WithDefault(name string) Option {
	return func(r *Registry) {
		if n := strings.TrimSpace(name); n != "" {
			r.defaultName = n
		}
	}
}

// WithStrategies adds or replaces strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(r *Registry) {
		for _, s := range strategies {
			if s != nil {
				r.strategies[s.Name()] = s
			}
		}
	}
}

// NewRegistry returns a registry holding the four built-in strategies.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		strategies: map[string]Strategy{
			Standard:           StandardStrategy{},
			PercentageDiscount: PercentageStrategy{},
			FixedDiscount:      FixedStrategy{},
			TieredPricing:      TieredStrategy{Tiers: DefaultTiers},
		},
		defaultName: Standard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultName reports the strategy used when none is requested.
func (r *Registry) DefaultName() string { return r.defaultName }

// Lookup returns the named strategy.
func (r *Registry) Lookup(name string) (Strategy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = r.defaultName
	}
	s, ok := r.strategies[name]
	if !ok {
		return nil, &UnknownStrategyError{Name: name}
	}
	return s, nil
}

// Strategies lists the registered strategies sorted by name.
func (r *Registry) Strategies() []Descriptor {
	out := make([]Descriptor, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, Descriptor{Name: s.Name(), Description: s.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CalculatePrice checks the shared input domain, validates in against the
// named strategy and, when valid, returns its output unmodified. Validation
// failures come back as a Result with Success=false; only an unknown strategy
// produces an error.
func (r *Registry) CalculatePrice(in Input, name string) (Result, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return Result{}, err
	}
	res := Result{Strategy: s.Name()}
	if verr := in.check(); verr != nil {
		res.Error = verr
		return res, nil
	}
	if v := s.Validate(in); !v.Valid {
		res.Error = v.Error
		if res.Error == nil {
			res.Error = &ValidationError{Field: "input", Message: "invalid"}
		}
		return res, nil
	}
	out := s.Calculate(in)
	res.Success = true
	res.Output = &out
	return res, nil
}
