package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const getDiscountCode = `SELECT code, kind, percent::text, amount, max_discount, usage_limit, used_count,
	min_cart_value, product_ids, category_ids, excluded_category_ids, valid_from, valid_to, rule, rule_reason
FROM discount_codes WHERE code = $1`

// PGStore reads discount codes from Postgres. It only ever issues SELECTs;
// used_count is maintained by the order-confirmation flow.
type PGStore struct {
	Pool *pgxpool.Pool
}

// FindByCode implements Finder.
func (s PGStore) FindByCode(ctx context.Context, code string) (Code, error) {
	if s.Pool == nil {
		return Code{}, errors.New("discount store not configured")
	}
	var (
		c                             Code
		kind, percent                 string
		usageLimit                    pgtype.Int4
		products, categories, exclude []pgtype.UUID
		validFrom, validTo            pgtype.Timestamptz
		rule                          []byte
	)
	err := s.Pool.QueryRow(ctx, getDiscountCode, NormalizeCode(code)).Scan(
		&c.Code, &kind, &percent, &c.Amount, &c.MaxDiscount, &usageLimit, &c.UsedCount,
		&c.MinCartValue, &products, &categories, &exclude, &validFrom, &validTo, &rule, &c.RuleReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Code{}, ErrNotFound
		}
		return Code{}, fmt.Errorf("query discount code: %w", err)
	}
	if c.Type, err = ParseType(kind); err != nil {
		return Code{}, err
	}
	if c.Type == Percentage {
		if c.Percent, err = parsePercent(percent); err != nil {
			return Code{}, err
		}
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int32)
		c.UsageLimit = &limit
	}
	if validFrom.Valid {
		c.ValidFrom = &validFrom.Time
	}
	if validTo.Valid {
		c.ValidTo = &validTo.Time
	}
	c.ProductIDs = toUUIDSlice(products)
	c.CategoryIDs = toUUIDSlice(categories)
	c.ExcludedCategoryIDs = toUUIDSlice(exclude)
	if len(rule) > 0 {
		c.Rule = rule
	}
	return c, nil
}

// Upsert writes codes, used by the seeder. The usage counter of existing rows is left alone.
func (s PGStore) Upsert(ctx context.Context, codes []Code) error {
	batch := &pgx.Batch{}
	for _, c := range codes {
		var limit pgtype.Int4
		if c.UsageLimit != nil {
			limit = pgtype.Int4{Int32: int32(*c.UsageLimit), Valid: true}
		}
		var rule []byte
		if len(c.Rule) > 0 {
			rule = c.Rule
		}
		batch.Queue(`INSERT INTO discount_codes (code, kind, percent, amount, max_discount, usage_limit, used_count,
	min_cart_value, product_ids, category_ids, excluded_category_ids, valid_from, valid_to, rule, rule_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (code) DO UPDATE SET kind = EXCLUDED.kind, percent = EXCLUDED.percent, amount = EXCLUDED.amount,
	max_discount = EXCLUDED.max_discount, usage_limit = EXCLUDED.usage_limit, min_cart_value = EXCLUDED.min_cart_value,
	product_ids = EXCLUDED.product_ids, category_ids = EXCLUDED.category_ids,
	excluded_category_ids = EXCLUDED.excluded_category_ids, valid_from = EXCLUDED.valid_from,
	valid_to = EXCLUDED.valid_to, rule = EXCLUDED.rule, rule_reason = EXCLUDED.rule_reason`,
			NormalizeCode(c.Code), string(c.Type), float64(c.Percent), c.Amount, c.MaxDiscount, limit, c.UsedCount,
			c.MinCartValue, toPgUUIDs(c.ProductIDs), toPgUUIDs(c.CategoryIDs), toPgUUIDs(c.ExcludedCategoryIDs),
			toTimestamptz(c.ValidFrom), toTimestamptz(c.ValidTo), rule, c.RuleReason)
	}
	return s.Pool.SendBatch(ctx, batch).Close()
}

func toUUIDSlice(values []pgtype.UUID) []uuid.UUID {
	if len(values) == 0 {
		return nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, uuid.UUID(v.Bytes))
		}
	}
	return out
}

func toPgUUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		out = append(out, pgtype.UUID{Bytes: id, Valid: true})
	}
	return out
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
