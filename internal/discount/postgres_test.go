package discount

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func TestUUIDConversions(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	pg := toPgUUIDs([]uuid.UUID{a, b})
	require.Len(t, pg, 2)
	require.True(t, pg[0].Valid)

	pg = append(pg, pgtype.UUID{})
	require.Equal(t, []uuid.UUID{a, b}, toUUIDSlice(pg))
	require.Nil(t, toUUIDSlice(nil))
	require.NotNil(t, toPgUUIDs(nil))
}

func TestToTimestamptz(t *testing.T) {
	require.False(t, toTimestamptz(nil).Valid)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ts := toTimestamptz(&now)
	require.True(t, ts.Valid)
	require.Equal(t, now, ts.Time)
}
