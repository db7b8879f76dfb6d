package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/sniff"
)

var sniffCmd = &cobra.Command{
	Use:   "sniff [file]",
	Short: "Detect a file's encoding and separator",
	Long: `Inspect the first 10 KB of a delimited file and report the
detected encoding, confidence, field separator, and column count
without running any analysis pass.`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}

		profile, err := sniff.Sniff(args[0], cfg.SeparatorRunes())
		if err != nil {
			log.Fatalf("Detection failed: %v", err)
		}

		fmt.Printf("File: %s\n", args[0])
		fmt.Printf("- Encoding: %s\n", profile.Encoding)
		fmt.Printf("- Confidence: %.2f\n", profile.Confidence)
		fmt.Printf("- Separator: %q\n", profile.Separator)
		fmt.Printf("- Columns: %d\n", profile.ColumnCount)
	},
}

func init() {
	rootCmd.AddCommand(sniffCmd)
}
