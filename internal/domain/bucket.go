package domain

import "math"

// Bucket is one histogram range and the number of features that fell in it.
// Lower is inclusive and Upper exclusive.
type Bucket struct {
	Label string  `json:"range"`
	Lower float64 `json:"-"`
	Upper float64 `json:"-"`
	Count int     `json:"count"`
}

// bucketRanges are the fixed histogram ranges in ascending order.
var bucketRanges = []Bucket{
	{Label: "0–1", Lower: math.Inf(-1), Upper: 1},
	{Label: "1–2", Lower: 1, Upper: 2},
	{Label: "2–3", Lower: 2, Upper: 3},
	{Label: "3–5", Lower: 3, Upper: 5},
	{Label: "5+", Lower: 5, Upper: math.Inf(1)},
}

// BucketCount is the number of histogram buckets.
var BucketCount = len(bucketRanges)

// Bucketize partitions features into the fixed magnitude ranges. A missing
// magnitude is treated as 0 and lands in the first bucket, so the counts
// always sum to len(features).
func Bucketize(features []Feature) []Bucket {
	out := make([]Bucket, len(bucketRanges))
	copy(out, bucketRanges)
	for _, f := range features {
		out[BucketIndex(EffectiveMagnitude(f))].Count++
	}
	return out
}

// BucketIndex returns the index of the range containing m. NaN is treated
// like a missing magnitude.
func BucketIndex(m float64) int {
	if math.IsNaN(m) {
		return 0
	}
	last := len(bucketRanges) - 1
	for i, b := range bucketRanges[:last] {
		if m < b.Upper {
			return i
		}
	}
	return last
}

// BucketLabel returns the label of the range f falls in.
func BucketLabel(f Feature) string {
	return bucketRanges[BucketIndex(EffectiveMagnitude(f))].Label
}

// BucketTotal sums the counts of a bucket set.
func BucketTotal(buckets []Bucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	return total
}
