package discount

import (
	"context"
	"errors"

	"github.com/noah-isme/toko-pricing/internal/resilience"
)

// GuardedFinder fails fast through a circuit breaker while the backing
// store is unavailable. ErrNotFound counts as a healthy answer.
type GuardedFinder struct {
	Finder  Finder
	Breaker *resilience.Breaker
}

// FindByCode implements Finder.
func (g GuardedFinder) FindByCode(ctx context.Context, code string) (Code, error) {
	if g.Breaker == nil {
		return g.Finder.FindByCode(ctx, code)
	}
	var found Code
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		c, err := g.Finder.FindByCode(ctx, code)
		found = c
		return err
	}, func(err error) bool {
		return errors.Is(err, ErrNotFound)
	})
	return found, err
}
