package aggregate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/stats"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

const scenario = `id,amount,category
1,10.5,"X"
2,,"Y"
3,20.0,""
`

func runFile(t *testing.T, path string, cfg Config) *Result {
	t.Helper()
	agg, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	result, err := agg.Run(path)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return result
}

func TestEndToEndScenario(t *testing.T) {
	path := writeTestCSV(t, scenario)
	result := runFile(t, path, DefaultConfig())

	if result.TotalRows != 3 {
		t.Errorf("expected 3 total rows, got %d", result.TotalRows)
	}
	if result.MalformedRows != 0 {
		t.Errorf("expected 0 malformed rows, got %d", result.MalformedRows)
	}
	if result.Profile.Separator != ',' {
		t.Errorf("expected comma separator, got %q", result.Profile.Separator)
	}

	amount, ok := result.Numeric["amount"]
	if !ok {
		t.Fatal("column 'amount' must be classified numeric")
	}
	if amount.Count != 2 {
		t.Errorf("amount: expected count 2, got %d", amount.Count)
	}
	if amount.Mean != 15.25 {
		t.Errorf("amount: expected mean 15.25, got %f", amount.Mean)
	}
	if amount.Min != 10.5 || amount.Max != 20.0 {
		t.Errorf("amount: expected min 10.5 max 20.0, got %f %f", amount.Min, amount.Max)
	}
	if amount.NullCount != 1 {
		t.Errorf("amount: expected 1 null, got %d", amount.NullCount)
	}

	category, ok := result.Categorical["category"]
	if !ok {
		t.Fatal("column 'category' must be classified categorical")
	}
	if category.UniqueCount != 2 {
		t.Errorf("category: expected 2 unique values, got %d", category.UniqueCount)
	}
	if category.NullCount != 1 {
		t.Errorf("category: expected 1 null (empty string is missing), got %d", category.NullCount)
	}
	if len(category.Top) != 2 {
		t.Fatalf("category: expected top-2, got %d entries", len(category.Top))
	}
	if category.Top[0].Value != "X" || category.Top[0].Count != 1 {
		t.Errorf("category: expected (X,1) first, got (%s,%d)", category.Top[0].Value, category.Top[0].Count)
	}
	if category.Top[1].Value != "Y" || category.Top[1].Count != 1 {
		t.Errorf("category: expected (Y,1) second, got (%s,%d)", category.Top[1].Value, category.Top[1].Count)
	}

	id, ok := result.Numeric["id"]
	if !ok {
		t.Fatal("column 'id' must be classified numeric")
	}
	if id.Count != 3 || id.NullCount != 0 {
		t.Errorf("id: expected count 3 nulls 0, got %d %d", id.Count, id.NullCount)
	}
}

func TestChunkSizeInvariance(t *testing.T) {
	path := writeTestCSV(t, scenario)

	baseline := runFile(t, path, DefaultConfig())
	for _, chunk := range []int{1, 7, 10000, 3} {
		cfg := DefaultConfig()
		cfg.ChunkSize = chunk
		result := runFile(t, path, cfg)

		if result.TotalRows != baseline.TotalRows {
			t.Errorf("chunk %d: total rows %d != %d", chunk, result.TotalRows, baseline.TotalRows)
		}
		for col, want := range baseline.Numeric {
			got := result.Numeric[col]
			if got.Count != want.Count || got.Mean != want.Mean ||
				got.Min != want.Min || got.Max != want.Max || got.NullCount != want.NullCount {
				t.Errorf("chunk %d: numeric %s differs: %+v vs %+v", chunk, col, got, want)
			}
		}
		for col, want := range baseline.Categorical {
			got := result.Categorical[col]
			if got.UniqueCount != want.UniqueCount || got.NullCount != want.NullCount || got.Total != want.Total {
				t.Errorf("chunk %d: categorical %s differs: %+v vs %+v", chunk, col, got, want)
			}
		}
	}
}

func TestNullAccounting(t *testing.T) {
	path := writeTestCSV(t, scenario)
	result := runFile(t, path, DefaultConfig())

	valid := result.ValidRows()
	for _, col := range result.Schema {
		nulls := result.NullCounts[col]
		var observed int64
		if s, ok := result.Numeric[col]; ok {
			observed = s.Count + s.Invalid
		} else {
			observed = result.Categorical[col].Total
		}
		if nulls+observed != valid {
			t.Errorf("column %s: nulls(%d) + observed(%d) != valid rows(%d)",
				col, nulls, observed, valid)
		}
	}
}

func TestMalformedRowsCountedNotAccumulated(t *testing.T) {
	path := writeTestCSV(t, "a,b\n1,2\nbroken\n3,4\n")
	result := runFile(t, path, DefaultConfig())

	if result.TotalRows != 3 {
		t.Errorf("malformed rows must count toward total; got %d", result.TotalRows)
	}
	if result.MalformedRows != 1 {
		t.Errorf("expected 1 malformed row, got %d", result.MalformedRows)
	}
	if a := result.Numeric["a"]; a.Count != 2 {
		t.Errorf("malformed row must not reach accumulators; count %d", a.Count)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	content := "n,label\n"
	for i := 0; i < 500; i++ {
		content += "1,alpha\n2,beta\n3,alpha\n"
	}
	path := writeTestCSV(t, content)

	seq := runFile(t, path, DefaultConfig())

	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.ChunkSize = 17
	par := runFile(t, path, cfg)

	if seq.TotalRows != par.TotalRows {
		t.Fatalf("row counts differ: %d vs %d", seq.TotalRows, par.TotalRows)
	}
	n1, n2 := seq.Numeric["n"], par.Numeric["n"]
	if n1.Count != n2.Count || n1.Mean != n2.Mean || n1.Min != n2.Min || n1.Max != n2.Max {
		t.Errorf("numeric summaries differ: %+v vs %+v", n1, n2)
	}
	c1, c2 := seq.Categorical["label"], par.Categorical["label"]
	if c1.UniqueCount != c2.UniqueCount || c1.Total != c2.Total {
		t.Errorf("categorical summaries differ: %+v vs %+v", c1, c2)
	}
	if c1.Top[0].Value != c2.Top[0].Value || c1.Top[0].Count != c2.Top[0].Count {
		t.Errorf("top values differ: %+v vs %+v", c1.Top, c2.Top)
	}
}

func TestAllNullColumnIsNumericUndefined(t *testing.T) {
	path := writeTestCSV(t, "a,b\n1,\n2,\n")
	result := runFile(t, path, DefaultConfig())

	b, ok := result.Numeric["b"]
	if !ok {
		t.Fatal("all-null column must default to numeric")
	}
	if !b.Undefined {
		t.Error("expected undefined mean for all-null column")
	}
	if b.NullCount != 2 {
		t.Errorf("expected 2 nulls, got %d", b.NullCount)
	}
}

func TestMixedColumnIsCategorical(t *testing.T) {
	// One unparseable value reclassifies the whole column for the run.
	path := writeTestCSV(t, "v\n1\n2\noops\n4\n")
	result := runFile(t, path, DefaultConfig())

	s, ok := result.Categorical["v"]
	if !ok {
		t.Fatal("mixed column must be classified categorical")
	}
	if s.UniqueCount != 4 {
		t.Errorf("expected 4 unique values, got %d", s.UniqueCount)
	}
	if s.Total != 4 {
		t.Errorf("expected total 4, got %d", s.Total)
	}
}

func TestMissingFileAborts(t *testing.T) {
	agg, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	result, err := agg.Run(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if result != nil {
		t.Error("no partial result may be returned on failure")
	}
}

func TestEmptyFileAborts(t *testing.T) {
	path := writeTestCSV(t, "")
	agg, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := agg.Run(path); err == nil {
		t.Fatal("expected a detection error for an empty file")
	}
}

func TestConfigValidation(t *testing.T) {
	bad := []Config{
		{ChunkSize: 0, NumericSampleCap: 10, TopK: 5},
		{ChunkSize: 10, NumericSampleCap: 0, TopK: 5},
		{ChunkSize: 10, NumericSampleCap: 10, TopK: 0},
	}
	for i, cfg := range bad {
		if _, err := New(cfg); err == nil {
			t.Errorf("case %d: expected a validation error", i)
		}
	}
}

func TestResultsAreIndependentAcrossRuns(t *testing.T) {
	path := writeTestCSV(t, scenario)

	first := runFile(t, path, DefaultConfig())
	second := runFile(t, path, DefaultConfig())

	if first.RunID == second.RunID {
		t.Error("each run must get a fresh run ID")
	}
	if first.Numeric["amount"].Count != second.Numeric["amount"].Count {
		t.Error("runs over the same file must agree")
	}
	if first.Kinds["category"] != stats.KindCategorical {
		t.Error("category must remain categorical across runs")
	}
}
