package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/aggregate"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/config"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/connectors"
	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/report"
)

var (
	analyzeWorkers   int
	analyzeChunkSize int
	outputFile       string
	analyzeRecursive bool
	analyzeNoCharts  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file or directory]",
	Short: "Run the full streaming analysis pipeline",
	Long: `Run the full analysis pipeline on a delimited file: format
detection, row counting, null analysis, and per-column statistics.
Writes a text report and text charts for the leading columns.

Examples:
  datapipe analyze data.csv
  datapipe analyze data.csv --workers 4 --output report.txt
  datapipe analyze /data/exports/ --recursive`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := args[0]

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = analyzeWorkers
		}
		if cmd.Flags().Changed("chunk-size") {
			cfg.ChunkSize = analyzeChunkSize
		}

		info, err := os.Stat(target)
		if err != nil {
			log.Fatalf("Error accessing %s: %v", target, err)
		}

		if info.IsDir() {
			analyzeDirectory(cfg, target)
		} else {
			if err := analyzeSingleFile(cfg, target, outputFile); err != nil {
				log.Fatalf("Failed to analyze %s: %v", target, err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0,
		"Parallel workers for the statistics pass (0 = sequential)")
	analyzeCmd.Flags().IntVar(&analyzeChunkSize, "chunk-size", 0,
		"Rows per batch (default from config)")
	analyzeCmd.Flags().StringVar(&outputFile, "output", "",
		"Report file (default: <output_dir>/<report_file>)")
	analyzeCmd.Flags().BoolVarP(&analyzeRecursive, "recursive", "r", false,
		"Process directories recursively")
	analyzeCmd.Flags().BoolVar(&analyzeNoCharts, "no-charts", false,
		"Skip writing text charts")
}

func analyzeSingleFile(cfg *config.Config, path, reportPath string) error {
	agg, err := aggregate.New(cfg.Aggregate())
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][reset] Analyzing %s...", filepath.Base(path))),
		progressbar.OptionSetWidth(20),
	)
	agg.SetProgress(func(stage string, rows int64) {
		bar.Describe(fmt.Sprintf("[cyan][reset] %s: %s rows", stage, humanize.Comma(rows)))
		_ = bar.Set64(rows)
	})

	result, err := agg.Run(path)
	bar.Finish()
	if err != nil {
		return err
	}

	if err := cfg.CreateDirectories(); err != nil {
		return err
	}
	if reportPath == "" {
		reportPath = filepath.Join(cfg.OutputDir, cfg.ReportFile)
	}
	if err := report.Write(result, reportPath); err != nil {
		return err
	}

	if !analyzeNoCharts {
		opts := report.ChartOptions{
			Bins:       cfg.HistogramBins,
			MaxColumns: cfg.MaxChartColumns,
			MaxBars:    cfg.MaxChartBars,
		}
		charts, err := report.WriteCharts(result, cfg.VisualizationsDir, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d charts to %s\n", len(charts), cfg.VisualizationsDir)
	}

	printSummary(result)
	fmt.Printf("Report saved to %s\n", reportPath)
	return nil
}

func analyzeDirectory(cfg *config.Config, dirPath string) {
	options := connectors.DiscoveryOptions{
		Recursive: analyzeRecursive,
	}
	files, err := connectors.DiscoverFiles(dirPath, connectors.DelimitedExtensions, options)
	if err != nil {
		log.Fatalf("Failed to discover files: %v", err)
	}

	fmt.Printf("Found %d delimited files\n", len(files))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan][reset] Processing files..."),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
	)

	// Files run concurrently; each file's passes stay sequential unless
	// cfg.Workers also shards the statistics pass.
	fileWorkers := cfg.Workers
	if fileWorkers < 1 {
		fileWorkers = 1
	}
	semaphore := make(chan struct{}, fileWorkers)

	start := time.Now()
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed int
	for _, file := range files {
		wg.Add(1)
		go func(f connectors.FileMeta) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			base := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
			reportPath := filepath.Join(cfg.OutputDir, base+"_report.txt")

			fileCfg := *cfg
			fileCfg.VisualizationsDir = filepath.Join(cfg.VisualizationsDir, base)
			if err := runQuiet(&fileCfg, f.Path, reportPath); err != nil {
				log.Printf("Failed to analyze %s: %v", f.Path, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			bar.Add(1)
		}(file)
	}
	wg.Wait()
	bar.Finish()

	fmt.Printf("Processed %d files (%d failed) in %v\n",
		len(files)-failed, failed, time.Since(start).Round(time.Millisecond))
}

// runQuiet analyzes one file without a per-pass progress bar, for use
// inside the directory worker pool.
func runQuiet(cfg *config.Config, path, reportPath string) error {
	agg, err := aggregate.New(cfg.Aggregate())
	if err != nil {
		return err
	}
	result, err := agg.Run(path)
	if err != nil {
		return err
	}
	if err := cfg.CreateDirectories(); err != nil {
		return err
	}
	if err := report.Write(result, reportPath); err != nil {
		return err
	}
	if !analyzeNoCharts {
		opts := report.ChartOptions{
			Bins:       cfg.HistogramBins,
			MaxColumns: cfg.MaxChartColumns,
			MaxBars:    cfg.MaxChartBars,
		}
		if _, err := report.WriteCharts(result, cfg.VisualizationsDir, opts); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(result *aggregate.Result) {
	fmt.Printf("\nFile: %s\n", result.Path)
	fmt.Printf("- Encoding: %s (confidence %.2f)\n", result.Profile.Encoding, result.Profile.Confidence)
	fmt.Printf("- Separator: %q\n", result.Profile.Separator)
	fmt.Printf("- Rows: %s (%s malformed)\n",
		humanize.Comma(result.TotalRows), humanize.Comma(result.MalformedRows))
	fmt.Printf("- Columns: %d (%d numeric, %d categorical)\n",
		len(result.Schema), len(result.Numeric), len(result.Categorical))
	fmt.Printf("- Processing time: %v\n", result.Elapsed.Round(time.Millisecond))
}
