package tax

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const listTaxRates = `SELECT country_code, rate::text, name, currency FROM tax_rates ORDER BY country_code`

// PGSource loads the tax table from Postgres.
type PGSource struct {
	Pool *pgxpool.Pool
}

// Load returns every row of the tax_rates table.
func (s PGSource) Load(ctx context.Context) ([]Entry, error) {
	if s.Pool == nil {
		return nil, nil
	}
	rows, err := s.Pool.Query(ctx, listTaxRates)
	if err != nil {
		return nil, fmt.Errorf("query tax rates: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e    Entry
			rate string
		)
		if err := row.Scan(&e.CountryCode, &rate, &e.Name, &e.Currency); err != nil {
			return Entry{}, err
		}
		r, err := ParseRate(rate)
		if err != nil {
			return Entry{}, fmt.Errorf("tax rate %s: %w", e.CountryCode, err)
		}
		e.Rate = r
		return e, nil
	})
}

// Upsert writes entries into the tax_rates table.
func (s PGSource) Upsert(ctx context.Context, entries []Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		rate := decimal.NewFromFloat(float64(e.Rate)).String()
		batch.Queue(`INSERT INTO tax_rates (country_code, rate, name, currency)
VALUES ($1, $2::numeric, $3, $4)
ON CONFLICT (country_code) DO UPDATE SET rate = EXCLUDED.rate, name = EXCLUDED.name, currency = EXCLUDED.currency`,
			normalize(e.CountryCode), rate, e.Name, e.Currency)
	}
	return s.Pool.SendBatch(ctx, batch).Close()
}
