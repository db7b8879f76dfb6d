package aggregate

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/sniff"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/source"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/stats"
)

// Config controls one analysis run.
type Config struct {
	ChunkSize        int    // rows per batch, must be > 0
	NumericSampleCap int    // reservoir size per numeric column
	TopK             int    // most-frequent values per categorical column
	MaxDistinct      int    // distinct-key cap per categorical column, 0 = unbounded
	Workers          int    // parallel workers for the statistics pass, 0 or 1 = sequential
	Separators       []rune // candidate separators in priority order
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:        source.DefaultChunkSize,
		NumericSampleCap: stats.DefaultSampleCap,
		TopK:             stats.DefaultTopK,
	}
}

// Validate rejects configurations that would make a run meaningless.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.NumericSampleCap <= 0 {
		return fmt.Errorf("numeric sample cap must be positive, got %d", c.NumericSampleCap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", c.TopK)
	}
	return nil
}

// ProgressFunc observes pass progress. The aggregator itself never
// logs; callers wire this to whatever reporting they want.
type ProgressFunc func(stage string, processedRows int64)

// Result is the sole hand-off artifact of a completed run. All fields
// are fully computed before the result is returned; the caller owns it
// exclusively.
type Result struct {
	RunID         string
	Path          string
	FileSize      int64
	Profile       sniff.FileProfile
	Schema        source.Schema
	TotalRows     int64
	MalformedRows int64

	Kinds           map[string]stats.Kind
	Numeric         map[string]stats.NumericSummary
	Categorical     map[string]stats.CategoricalSummary
	NullCounts      map[string]int64
	NullPercentages map[string]float64

	Elapsed time.Duration
}

// ValidRows returns the number of rows that contributed to per-column
// accumulators.
func (r *Result) ValidRows() int64 {
	return r.TotalRows - r.MalformedRows
}

// Aggregator drives the streaming passes over a file and folds row
// batches into per-column accumulators. Each run constructs fresh
// accumulators; there is no shared state across runs.
type Aggregator struct {
	cfg      Config
	progress ProgressFunc
}

// New creates an aggregator for the given configuration.
func New(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{cfg: cfg}, nil
}

// SetProgress installs an optional progress observer.
func (a *Aggregator) SetProgress(fn ProgressFunc) {
	a.progress = fn
}

func (a *Aggregator) report(stage string, rows int64) {
	if a.progress != nil {
		a.progress(stage, rows)
	}
}

// Run executes the full pipeline on the file at path: format
// detection, a row-count pass, a null/type-inference pass, and a
// statistics pass. Each pass reopens the file from offset zero; peak
// memory stays bounded by chunk size, reservoir caps, and categorical
// cardinality, never by total row count.
func (a *Aggregator) Run(path string) (*Result, error) {
	start := time.Now()

	profile, err := sniff.Sniff(path, a.cfg.Separators)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	schema, totalRows, malformed, err := a.countPass(path, profile)
	if err != nil {
		return nil, err
	}

	nulls, kinds, err := a.inferencePass(path, profile, schema)
	if err != nil {
		return nil, err
	}

	columns, err := a.statsPass(path, profile, schema, kinds)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:           uuid.NewString(),
		Path:            path,
		FileSize:        info.Size(),
		Profile:         *profile,
		Schema:          schema,
		TotalRows:       totalRows,
		MalformedRows:   malformed,
		Kinds:           make(map[string]stats.Kind, len(schema)),
		Numeric:         make(map[string]stats.NumericSummary),
		Categorical:     make(map[string]stats.CategoricalSummary),
		NullCounts:      nulls.Counts(),
		NullPercentages: nulls.Percentages(),
	}

	rowsProcessed := nulls.Rows()
	for i, col := range columns {
		result.Kinds[schema[i]] = col.Kind
		if col.Kind == stats.KindNumeric {
			result.Numeric[schema[i]] = col.Numeric().Finalize(rowsProcessed)
		} else {
			result.Categorical[schema[i]] = col.Categorical().Finalize(rowsProcessed, a.cfg.TopK)
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// countPass obtains the schema and the total row count, including
// malformed rows.
func (a *Aggregator) countPass(path string, profile *sniff.FileProfile) (source.Schema, int64, int64, error) {
	src, err := source.Open(path, profile, a.cfg.ChunkSize)
	if err != nil {
		return nil, 0, 0, err
	}
	defer src.Close()

	var rows, malformed int64
	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
		rows += int64(len(batch.Rows) + batch.Malformed)
		malformed += int64(batch.Malformed)
		a.report("counting", rows)
	}
	return src.Schema(), rows, malformed, nil
}

// inferencePass counts nulls and decides each column's kind for the
// statistics pass: numeric iff every non-empty value parses as a
// number. A column with no non-empty values stays numeric and
// finalizes with an undefined mean.
func (a *Aggregator) inferencePass(path string, profile *sniff.FileProfile, schema source.Schema) (*stats.NullTracker, []stats.Kind, error) {
	src, err := source.Open(path, profile, a.cfg.ChunkSize)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	nulls := stats.NewNullTracker(schema)
	numericCapable := make([]bool, len(schema))
	for i := range numericCapable {
		numericCapable[i] = true
	}

	var rows int64
	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		for _, row := range batch.Rows {
			nulls.ObserveRow(row)
			for i, cell := range row {
				if stats.IsNull(cell) {
					continue
				}
				if numericCapable[i] && !stats.IsNumericValue(cell) {
					numericCapable[i] = false
				}
			}
		}
		rows += int64(len(batch.Rows))
		a.report("nulls", rows)
	}

	kinds := make([]stats.Kind, len(schema))
	for i := range kinds {
		if numericCapable[i] {
			kinds[i] = stats.KindNumeric
		} else {
			kinds[i] = stats.KindCategorical
		}
	}
	return nulls, kinds, nil
}

// statsPass folds every batch into per-column accumulators, discarding
// each batch afterwards.
func (a *Aggregator) statsPass(path string, profile *sniff.FileProfile, schema source.Schema, kinds []stats.Kind) ([]*stats.Column, error) {
	src, err := source.Open(path, profile, a.cfg.ChunkSize)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if a.cfg.Workers > 1 {
		return a.foldParallel(src, schema, kinds)
	}
	return a.foldSequential(src, schema, kinds)
}

func (a *Aggregator) newColumns(schema source.Schema, kinds []stats.Kind) []*stats.Column {
	columns := make([]*stats.Column, len(schema))
	for i, name := range schema {
		columns[i] = stats.NewColumn(name, kinds[i], a.cfg.NumericSampleCap, a.cfg.MaxDistinct)
	}
	return columns
}

func (a *Aggregator) foldSequential(src *source.RowSource, schema source.Schema, kinds []stats.Kind) ([]*stats.Column, error) {
	columns := a.newColumns(schema, kinds)

	var rows int64
	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		foldBatch(columns, batch)
		rows += int64(len(batch.Rows))
		a.report("statistics", rows)
	}
	return columns, nil
}

func foldBatch(columns []*stats.Column, batch *source.Batch) {
	for _, row := range batch.Rows {
		for i, cell := range row {
			columns[i].Update(cell)
		}
	}
}
