package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/aggregate"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/stats"
)

// ChartOptions controls the text charts written alongside the report.
type ChartOptions struct {
	Bins       int // histogram bins per numeric column
	MaxColumns int // numeric and categorical columns to chart, each
	MaxBars    int // categories per bar chart
	barWidth   int
}

// DefaultChartOptions returns the default chart limits.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Bins: 50, MaxColumns: 3, MaxBars: 10, barWidth: 40}
}

// WriteCharts renders distribution histograms for the first few numeric
// columns and top-category bar charts for the first few categorical
// columns into dir. It returns the paths written.
func WriteCharts(result *aggregate.Result, dir string, opts ChartOptions) ([]string, error) {
	if opts.Bins <= 0 || opts.MaxColumns <= 0 {
		opts = DefaultChartOptions()
	}
	if opts.barWidth <= 0 {
		opts.barWidth = 40
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	var written []string
	charted := 0
	for _, col := range result.Schema {
		if charted >= opts.MaxColumns || result.Kinds[col] != stats.KindNumeric {
			continue
		}
		s := result.Numeric[col]
		if len(s.Sample) == 0 {
			continue
		}
		path := filepath.Join(dir, "distribution_"+sanitize(col)+".txt")
		if err := os.WriteFile(path, []byte(histogram(col, s, opts)), 0o644); err != nil {
			return written, fmt.Errorf("failed to write chart %s: %w", path, err)
		}
		written = append(written, path)
		charted++
	}

	charted = 0
	for _, col := range result.Schema {
		if charted >= opts.MaxColumns || result.Kinds[col] != stats.KindCategorical {
			continue
		}
		s := result.Categorical[col]
		if len(s.Top) == 0 {
			continue
		}
		path := filepath.Join(dir, "top_categories_"+sanitize(col)+".txt")
		if err := os.WriteFile(path, []byte(barChart(col, s, opts)), 0o644); err != nil {
			return written, fmt.Errorf("failed to write chart %s: %w", path, err)
		}
		written = append(written, path)
		charted++
	}

	return written, nil
}

// histogram renders the sampled distribution of a numeric column.
// The sample is the capped first-N reservoir, so the chart describes
// the sample, not the exact population.
func histogram(col string, s stats.NumericSummary, opts ChartOptions) string {
	lo, hi := s.Sample[0], s.Sample[0]
	for _, v := range s.Sample {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	bins := opts.Bins
	counts := make([]int, bins)
	width := hi - lo
	for _, v := range s.Sample {
		i := 0
		if width > 0 {
			i = int(float64(bins) * (v - lo) / width)
		}
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Distribution of %s (%d sampled values)\n\n", col, len(s.Sample))
	binWidth := width / float64(bins)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		bar := int(math.Round(float64(c) / float64(peak) * float64(opts.barWidth)))
		if bar == 0 {
			bar = 1
		}
		fmt.Fprintf(&out, "%12.4g | %s %d\n", lo+binWidth*float64(i), strings.Repeat("#", bar), c)
	}
	return out.String()
}

// barChart renders the most frequent values of a categorical column.
func barChart(col string, s stats.CategoricalSummary, opts ChartOptions) string {
	top := s.Top
	if len(top) > opts.MaxBars {
		top = top[:opts.MaxBars]
	}

	peak := top[0].Count
	var out strings.Builder
	fmt.Fprintf(&out, "Top %d categories in %s (%d unique)\n\n", len(top), col, s.UniqueCount)
	for _, vc := range top {
		bar := int(math.Round(float64(vc.Count) / float64(peak) * float64(opts.barWidth)))
		if bar == 0 {
			bar = 1
		}
		label := vc.Value
		if len(label) > 24 {
			label = label[:21] + "..."
		}
		fmt.Fprintf(&out, "%-24s | %s %s\n", label, strings.Repeat("#", bar), humanize.Comma(vc.Count))
	}
	return out.String()
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
