package stats

import (
	"math"
	"strconv"
)

// DefaultSampleCap bounds the numeric sample reservoir.
const DefaultSampleCap = 10000

// NumericAccumulator is a running summary for a numeric column. Update
// and Merge keep only O(cap) state regardless of row count.
type NumericAccumulator struct {
	Sum     float64
	Count   int64
	Min     float64
	Max     float64
	Invalid int64

	reservoir []float64
	cap       int
}

// NewNumeric creates a numeric accumulator with the given reservoir
// capacity. A capacity <= 0 uses DefaultSampleCap.
func NewNumeric(sampleCap int) *NumericAccumulator {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &NumericAccumulator{
		Min:       math.Inf(1),
		Max:       math.Inf(-1),
		reservoir: make([]float64, 0, minInt(sampleCap, 1024)),
		cap:       sampleCap,
	}
}

// Update folds one non-empty cell into the accumulator. Cells that do
// not parse as a number are tracked in Invalid; nothing is silently
// dropped.
func (a *NumericAccumulator) Update(cell string) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		a.Invalid++
		return
	}

	a.Sum += v
	a.Count++
	if v < a.Min {
		a.Min = v
	}
	if v > a.Max {
		a.Max = v
	}

	// First-N sampling, not uniform reservoir sampling. The bias is a
	// documented limitation.
	if len(a.reservoir) < a.cap {
		a.reservoir = append(a.reservoir, v)
	}
}

// Merge folds other into a. The operation is associative and
// commutative over (Sum, Count, Min, Max, Invalid); the reservoir is
// concatenated and capped.
func (a *NumericAccumulator) Merge(other *NumericAccumulator) {
	a.Sum += other.Sum
	a.Count += other.Count
	a.Invalid += other.Invalid
	if other.Min < a.Min {
		a.Min = other.Min
	}
	if other.Max > a.Max {
		a.Max = other.Max
	}

	room := a.cap - len(a.reservoir)
	if room > len(other.reservoir) {
		room = len(other.reservoir)
	}
	if room > 0 {
		a.reservoir = append(a.reservoir, other.reservoir[:room]...)
	}
}

// Reservoir returns the retained sample values.
func (a *NumericAccumulator) Reservoir() []float64 {
	return a.reservoir
}

// NumericSummary is the finalized form of a numeric accumulator.
type NumericSummary struct {
	Count     int64
	NullCount int64
	Invalid   int64
	Mean      float64
	Min       float64
	Max       float64
	// Undefined marks a zero-count column whose mean cannot be
	// computed. Mean is NaN in that case.
	Undefined bool
	Sample    []float64
}

// Finalize computes the summary against the number of rows the column
// actually saw (malformed rows excluded).
func (a *NumericAccumulator) Finalize(rowsProcessed int64) NumericSummary {
	s := NumericSummary{
		Count:     a.Count,
		NullCount: rowsProcessed - a.Count - a.Invalid,
		Invalid:   a.Invalid,
		Min:       a.Min,
		Max:       a.Max,
		Sample:    a.reservoir,
	}
	if a.Count == 0 {
		s.Mean = math.NaN()
		s.Undefined = true
		s.Min = math.NaN()
		s.Max = math.NaN()
	} else {
		s.Mean = a.Sum / float64(a.Count)
	}
	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
