package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: the counter advances
// by the increment argument (1 for strict, RangeSize for cached).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("TEST")
	now := time.Now()
	year := now.Format("2006")

	num, err := svc.GetNextNumber(ctx, cfg, nil, now)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("TEST-%s-00001", year), num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, now)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("TEST-%s-00002", year), num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("OD")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}
	now := time.Now()

	// The first call reserves a range; subsequent calls within the range
	// must not hit the database again.
	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, now)
		require.NoError(t, err)
		assert.Equal(t, int64(i), ParseNumber(num))
	}
	assert.Equal(t, int64(10), q.currentValue)

	// The 11th call reserves the next range.
	num, err := svc.GetNextNumber(ctx, cfg, opts, now)
	require.NoError(t, err)
	assert.Equal(t, int64(11), ParseNumber(num))
	assert.Equal(t, int64(20), q.currentValue)
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		num  int64
		want string
	}{
		{"year and padding", Config{Prefix: "SL", IncludeYear: true, PadWidth: 5}, 17, "SL-2025-00017"},
		{"no year", Config{Prefix: "QT", IncludeYear: false, PadWidth: 4}, 3, "QT-0003"},
		{"default pad width", Config{Prefix: "OP", IncludeYear: true}, 1, "OP-2025-00001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.cfg, period, tt.num))
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(17), ParseNumber("SL-2025-00017"))
	assert.Equal(t, int64(3), ParseNumber("QT-0003"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

func TestBuildKey(t *testing.T) {
	period := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "SL_2025", buildKey(Config{Prefix: "SL", ResetPeriod: "year"}, period))
	assert.Equal(t, "SL_2025_03", buildKey(Config{Prefix: "SL", ResetPeriod: "month"}, period))
	assert.Equal(t, "SL", buildKey(Config{Prefix: "SL", ResetPeriod: "never"}, period))
}
