package discount

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/money"
)

const seed = `
codes:
  - code: welcome10
    type: percentage
    value: "10"
    usage_limit: 100
    used_count: 4
  - code: FLAT500
    type: fixed_amount
    value: "500"
    min_cart_value: 2000
    excluded_category_ids: ["33333333-3333-3333-3333-333333333333"]
    valid_from: 2026-01-01T00:00:00Z
  - code: TRIO
    type: fixed_amount
    value: "300"
    rule:
      ">=": [{ "var": "cart.quantity" }, 3]
    rule_reason: buy three
`

func TestDecodeYAMLAndFind(t *testing.T) {
	codes, err := DecodeYAML(strings.NewReader(seed))
	require.NoError(t, err)
	require.Len(t, codes, 3)

	store := NewMemoryStore(codes...)
	ctx := context.Background()

	welcome, err := store.FindByCode(ctx, " Welcome10 ")
	require.NoError(t, err)
	require.Equal(t, Percentage, welcome.Type)
	require.Equal(t, money.Percent(10), welcome.Percent)
	require.Equal(t, 100, *welcome.UsageLimit)
	require.Equal(t, 4, welcome.UsedCount)

	flat, err := store.FindByCode(ctx, "flat500")
	require.NoError(t, err)
	require.Equal(t, money.Money(500), flat.Amount)
	require.Equal(t, money.Money(2_000), flat.MinCartValue)
	require.Len(t, flat.ExcludedCategoryIDs, 1)
	require.NotNil(t, flat.ValidFrom)

	trio, err := store.FindByCode(ctx, "TRIO")
	require.NoError(t, err)
	require.JSONEq(t, `{">=":[{"var":"cart.quantity"},3]}`, string(trio.Rule))

	_, err = store.FindByCode(ctx, "missing")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestDecodeYAMLRejectsBadValues(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("codes:\n  - code: X\n    type: percentage\n    value: \"150\"\n"))
	require.Error(t, err)
	_, err = DecodeYAML(strings.NewReader("codes:\n  - code: X\n    type: bogus\n    value: \"1\"\n"))
	require.Error(t, err)
	_, err = DecodeYAML(strings.NewReader("codes:\n  - code: X\n    type: fixed\n    value: \"-1\"\n"))
	require.Error(t, err)
}

func TestMemoryStoreAllSorted(t *testing.T) {
	store := NewMemoryStore(Code{Code: "zeta"}, Code{Code: "ALPHA"}, Code{Code: "mid"}, Code{Code: "beta"})
	for i := 0; i < 5; i++ {
		var names []string
		for _, c := range store.All() {
			names = append(names, c.Code)
		}
		require.Equal(t, []string{"ALPHA", "BETA", "MID", "ZETA"}, names)
	}
}
