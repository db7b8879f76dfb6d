package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate configuration and preflight a run",
	Long: `Validate the effective configuration, make sure the output
directories can be created, and (optionally) verify the input file is
readable, printing a rough memory estimate for processing it.`,

	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Printf("Configuration is invalid:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
		fmt.Printf("- Chunk size: %s rows\n", humanize.Comma(int64(cfg.ChunkSize)))
		fmt.Printf("- Numeric sample cap: %s\n", humanize.Comma(int64(cfg.NumericSampleCap)))
		fmt.Printf("- Top-k: %d\n", cfg.TopK)
		if cfg.MaxDistinct > 0 {
			fmt.Printf("- Distinct-key cap: %s\n", humanize.Comma(int64(cfg.MaxDistinct)))
		} else {
			fmt.Println("- Distinct-key cap: unbounded")
		}

		if err := cfg.CreateDirectories(); err != nil {
			log.Fatalf("Failed to create output directories: %v", err)
		}
		fmt.Printf("Directories ready: %s, %s\n", cfg.OutputDir, cfg.VisualizationsDir)

		if len(args) == 1 {
			info, err := os.Stat(args[0])
			if err != nil {
				log.Fatalf("Input file not accessible: %v", err)
			}
			fmt.Printf("Input file: %s (%s)\n", args[0], humanize.Bytes(uint64(info.Size())))
			fmt.Printf("Estimated peak memory: %.0f MB\n", config.EstimateMemoryMB(info.Size()))
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
