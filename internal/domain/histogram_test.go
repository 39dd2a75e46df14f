package domain

import (
	"errors"
	"testing"
)

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		price float64
		want  int
	}{
		{0, 0},
		{50, 0},
		{100.99, 0},
		{101, 1},
		{150, 1},
		{900.5, 8},
		{901, 9},
		{999, 9},
		{1200, 9},
	}

	for _, tc := range cases {
		got, err := BucketIndex(tc.price)
		if err != nil {
			t.Fatalf("BucketIndex(%v) error: %v", tc.price, err)
		}
		if got != tc.want {
			t.Fatalf("BucketIndex(%v) = %d; want %d", tc.price, got, tc.want)
		}
	}

	if _, err := BucketIndex(-1); !errors.Is(err, ErrPriceOutOfRange) {
		t.Fatalf("expected ErrPriceOutOfRange, got %v", err)
	}
}

func TestNewBarChartFillsEmptyBuckets(t *testing.T) {
	counts := make([]int64, len(PriceBoundaries))
	for _, p := range []float64{50, 150, 999, 1200} {
		i, _ := BucketIndex(p)
		counts[i]++
	}

	chart := NewBarChart(counts)
	if len(chart) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(chart))
	}

	want := map[any]int64{int64(0): 1, int64(101): 1, OverflowBucketID: 2}
	for _, b := range chart {
		if b.Count != want[b.ID] {
			t.Fatalf("bucket %v (%s) = %d; want %d", b.ID, b.Range, b.Count, want[b.ID])
		}
	}

	if chart[0].Range != "0-100" || chart[8].Range != "801-900" {
		t.Fatalf("unexpected labels %q %q", chart[0].Range, chart[8].Range)
	}
}
