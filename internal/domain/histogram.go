package domain

import (
	"fmt"
	"math"
)

// PriceBoundaries are the lower bounds of the histogram buckets. Bucket i
// covers [PriceBoundaries[i], PriceBoundaries[i+1]) and the last one is open.
var PriceBoundaries = []float64{0, 101, 201, 301, 401, 501, 601, 701, 801, 901}

const OverflowBucketID = "901-above"

// BucketIndex returns the histogram bucket of a price. Prices below zero
// are not representable and return ErrPriceOutOfRange.
func BucketIndex(price float64) (int, error) {
	if math.IsNaN(price) || price < PriceBoundaries[0] {
		return 0, fmt.Errorf("%w: %v", ErrPriceOutOfRange, price)
	}
	for i := len(PriceBoundaries) - 1; i > 0; i-- {
		if price >= PriceBoundaries[i] {
			return i, nil
		}
	}
	return 0, nil
}

// NewBarChart labels per-bucket counts. counts may be shorter than the
// number of buckets; missing buckets report zero.
func NewBarChart(counts []int64) []PriceBucket {
	chart := make([]PriceBucket, len(PriceBoundaries))
	for i, lower := range PriceBoundaries {
		b := PriceBucket{ID: int64(lower)}
		if i == len(PriceBoundaries)-1 {
			b.ID = OverflowBucketID
			b.Range = OverflowBucketID
		} else {
			b.Range = fmt.Sprintf("%d-%d", int64(lower), int64(PriceBoundaries[i+1])-1)
		}
		if i < len(counts) {
			b.Count = counts[i]
		}
		chart[i] = b
	}
	return chart
}
