package stats

import "sort"

// DefaultTopK is how many most-frequent values a categorical summary
// reports.
const DefaultTopK = 5

// ValueCount is one entry of a categorical frequency table.
type ValueCount struct {
	Value string
	Count int64
}

// CategoricalAccumulator is a running frequency table for a column.
// By default the table is unbounded; setting maxDistinct > 0 folds
// values beyond the first maxDistinct distinct keys into OtherCount,
// keeping memory bounded for high-cardinality columns.
type CategoricalAccumulator struct {
	counts map[string]int64
	order  map[string]int
	seq    int

	maxDistinct int
	OtherCount  int64
}

// NewCategorical creates a categorical accumulator. maxDistinct <= 0
// means unbounded distinct-key tracking.
func NewCategorical(maxDistinct int) *CategoricalAccumulator {
	return &CategoricalAccumulator{
		counts:      make(map[string]int64),
		order:       make(map[string]int),
		maxDistinct: maxDistinct,
	}
}

// Update increments the count for one non-empty cell value.
func (a *CategoricalAccumulator) Update(cell string) {
	a.add(cell, 1)
}

func (a *CategoricalAccumulator) add(value string, n int64) {
	if _, seen := a.counts[value]; !seen {
		if a.maxDistinct > 0 && len(a.counts) >= a.maxDistinct {
			a.OtherCount += n
			return
		}
		a.order[value] = a.seq
		a.seq++
	}
	a.counts[value] += n
}

// Total returns the sum of all observed counts, including the overflow
// bucket.
func (a *CategoricalAccumulator) Total() int64 {
	var total int64
	for _, c := range a.counts {
		total += c
	}
	return total + a.OtherCount
}

// Distinct returns the number of tracked distinct values.
func (a *CategoricalAccumulator) Distinct() int {
	return len(a.counts)
}

// Count returns the tracked count for value.
func (a *CategoricalAccumulator) Count(value string) int64 {
	return a.counts[value]
}

// Merge folds other into a: key-wise sum over the union of keys.
// Keys new to a are appended in other's first-seen order, so merging
// preserves a deterministic tie-break ordering.
func (a *CategoricalAccumulator) Merge(other *CategoricalAccumulator) {
	keys := make([]string, 0, len(other.counts))
	for k := range other.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return other.order[keys[i]] < other.order[keys[j]]
	})

	for _, k := range keys {
		a.add(k, other.counts[k])
	}
	a.OtherCount += other.OtherCount
}

// TopK returns the k most frequent values, sorted by count descending
// with ties broken by first-seen insertion order.
func (a *CategoricalAccumulator) TopK(k int) []ValueCount {
	if k <= 0 {
		k = DefaultTopK
	}

	all := make([]ValueCount, 0, len(a.counts))
	for v, c := range a.counts {
		all = append(all, ValueCount{Value: v, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return a.order[all[i].Value] < a.order[all[j].Value]
	})

	if len(all) > k {
		all = all[:k]
	}
	return all
}

// CategoricalSummary is the finalized form of a categorical
// accumulator.
type CategoricalSummary struct {
	UniqueCount int
	Top         []ValueCount
	NullCount   int64
	Total       int64
	// OtherCount is nonzero only when a distinct-key cap folded
	// overflow values into a catch-all bucket.
	OtherCount int64
}

// Finalize computes the summary against the number of rows the column
// actually saw.
func (a *CategoricalAccumulator) Finalize(rowsProcessed int64, topK int) CategoricalSummary {
	total := a.Total()
	return CategoricalSummary{
		UniqueCount: len(a.counts),
		Top:         a.TopK(topK),
		NullCount:   rowsProcessed - total,
		Total:       total,
		OtherCount:  a.OtherCount,
	}
}
