package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
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

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	queryCount   int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCount++

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
	cfg := DefaultConfig("OS")
	period := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "OS-2026-00001" {
		t.Errorf("expected OS-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "OS-2026-00002" {
		t.Errorf("expected OS-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PR")
	period := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call allocates the range 1..10 with a single query.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PR-2026-00001" {
		t.Errorf("expected PR-2026-00001, got %s", num)
	}

	// Next nine calls must be served from memory.
	for i := 2; i <= 10; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.queryCount != 1 {
		t.Errorf("expected 1 DB query for the first range, got %d", q.queryCount)
	}

	// Eleventh call triggers the next range allocation.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PR-2026-00011" {
		t.Errorf("expected PR-2026-00011, got %s", num)
	}
	if q.queryCount != 2 {
		t.Errorf("expected 2 DB queries after range exhaustion, got %d", q.queryCount)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]int64{
		"OS-2026-00042": 42,
		"PR-00007":      7,
		"garbage":       -1,
	}
	for in, want := range cases {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q) = %d, want %d", in, got, want)
		}
	}
}
