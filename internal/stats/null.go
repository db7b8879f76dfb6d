package stats

// NullTracker counts missing values per column across a pass. A value
// is missing iff it is empty after trimming whitespace.
type NullTracker struct {
	columns []string
	counts  []int64
	rows    int64
}

// NewNullTracker creates a tracker for the given ordered column names.
func NewNullTracker(columns []string) *NullTracker {
	return &NullTracker{
		columns: columns,
		counts:  make([]int64, len(columns)),
	}
}

// ObserveRow counts the nulls of one well-formed row.
func (t *NullTracker) ObserveRow(row []string) {
	t.rows++
	for i, cell := range row {
		if i >= len(t.counts) {
			break
		}
		if IsNull(cell) {
			t.counts[i]++
		}
	}
}

// Merge folds other into t. Column layouts must match; this is
// guaranteed when both trackers were built from the same schema.
func (t *NullTracker) Merge(other *NullTracker) {
	t.rows += other.rows
	for i := range t.counts {
		t.counts[i] += other.counts[i]
	}
}

// Rows returns the number of rows observed.
func (t *NullTracker) Rows() int64 { return t.rows }

// Counts returns the per-column null counts keyed by column name.
func (t *NullTracker) Counts() map[string]int64 {
	out := make(map[string]int64, len(t.columns))
	for i, col := range t.columns {
		out[col] = t.counts[i]
	}
	return out
}

// Percentages returns per-column null rates in percent of observed
// rows.
func (t *NullTracker) Percentages() map[string]float64 {
	out := make(map[string]float64, len(t.columns))
	for i, col := range t.columns {
		if t.rows == 0 {
			out[col] = 0
			continue
		}
		out[col] = float64(t.counts[i]) / float64(t.rows) * 100
	}
	return out
}
