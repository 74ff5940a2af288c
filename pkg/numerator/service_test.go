package numerator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.val
	return nil
}

// fakeQuerier emulates the sys_sequences UPSERT semantics in memory.
type fakeQuerier struct {
	sequences map[string]int64
	calls     int
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{sequences: make(map[string]int64)}
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls++
	key := args[0].(string)

	if len(args) == 1 {
		q.sequences[key]++
		return fakeRow{val: q.sequences[key]}
	}

	delta := args[1].(int64)
	if strings.Contains(sql, "current_val + $2") {
		if _, ok := q.sequences[key]; !ok {
			q.sequences[key] = delta
		} else {
			q.sequences[key] += delta
		}
	} else {
		q.sequences[key] = delta
	}
	return fakeRow{val: q.sequences[key]}
}

func TestGetNextNumber_Strict(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)
	period := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.GetNextNumber(context.Background(), DefaultConfig("INV"), nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", first)

	second, err := svc.GetNextNumber(context.Background(), DefaultConfig("INV"), nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", second)

	// Every strict number is one round trip.
	assert.Equal(t, 2, querier.calls)
}

func TestGetNextNumber_KeysIsolatedByPrefixAndYear(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)

	inv2026, err := svc.GetNextNumber(context.Background(), DefaultConfig("INV"), nil,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	ret2026, err := svc.GetNextNumber(context.Background(), DefaultConfig("RET"), nil,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	inv2027, err := svc.GetNextNumber(context.Background(), DefaultConfig("INV"), nil,
		time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00001", inv2026)
	assert.Equal(t, "RET-2026-00001", ret2026)
	assert.Equal(t, "INV-2027-00001", inv2027)
}

func TestGetNextNumber_CachedReservesRanges(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)
	period := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	opts := &Options{Strategy: StrategyCached, RangeSize: 3}

	for i := int64(1); i <= 3; i++ {
		n, err := svc.GetNextNumber(context.Background(), DefaultConfig("CMN"), opts, period)
		require.NoError(t, err)
		assert.Equal(t, svc.formatNumber(DefaultConfig("CMN"), period, i), n)
	}
	// First three numbers came out of a single reservation.
	assert.Equal(t, 1, querier.calls)

	n, err := svc.GetNextNumber(context.Background(), DefaultConfig("CMN"), opts, period)
	require.NoError(t, err)
	assert.Equal(t, "CMN-2026-00004", n)
	assert.Equal(t, 2, querier.calls)
}

func TestSetNextNumber_ResetsCache(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)
	period := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(context.Background(), DefaultConfig("CMN"), opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(context.Background(), DefaultConfig("CMN"), period, 100))

	n, err := svc.GetNextNumber(context.Background(), DefaultConfig("CMN"), opts, period)
	require.NoError(t, err)
	assert.Equal(t, "CMN-2026-00101", n)
}

func TestFormatNumber(t *testing.T) {
	svc := New(nil)
	period := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV-2026-00042",
		svc.formatNumber(DefaultConfig("INV"), period, 42))
	assert.Equal(t, "INV-042",
		svc.formatNumber(Config{Prefix: "INV", PadWidth: 3}, period, 42))
	assert.Equal(t, "INV-00042",
		svc.formatNumber(Config{Prefix: "INV"}, period, 42))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("INV-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("INV-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

func TestGetNextNumber_NilService(t *testing.T) {
	var svc *Service
	_, err := svc.GetNextNumber(context.Background(), DefaultConfig("INV"), nil, time.Now())
	assert.Error(t, err)
}
