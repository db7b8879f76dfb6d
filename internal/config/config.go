package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alexdataengineer/efficient-data-pipeline-better-collective/internal/aggregate"
)

// Config centralizes every tunable of the pipeline.
type Config struct {
	ChunkSize        int      `mapstructure:"chunk_size" yaml:"chunk_size"`
	NumericSampleCap int      `mapstructure:"numeric_sample_cap" yaml:"numeric_sample_cap"`
	TopK             int      `mapstructure:"top_k" yaml:"top_k"`
	MaxDistinct      int      `mapstructure:"max_distinct" yaml:"max_distinct"`
	Workers          int      `mapstructure:"workers" yaml:"workers"`
	Separators       []string `mapstructure:"separators" yaml:"separators"`

	OutputDir         string `mapstructure:"output_dir" yaml:"output_dir"`
	VisualizationsDir string `mapstructure:"visualizations_dir" yaml:"visualizations_dir"`
	ReportFile        string `mapstructure:"report_file" yaml:"report_file"`

	HistogramBins   int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	MaxChartColumns int `mapstructure:"max_chart_columns" yaml:"max_chart_columns"`
	MaxChartBars    int `mapstructure:"max_chart_bars" yaml:"max_chart_bars"`
}

// Load loads configuration from defaults, an optional config file, and
// DATAPIPE_* environment variables, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DATAPIPE")
	v.AutomaticEnv()

	v.SetDefault("chunk_size", 10000)
	v.SetDefault("numeric_sample_cap", 10000)
	v.SetDefault("top_k", 5)
	v.SetDefault("max_distinct", 0)
	v.SetDefault("workers", 0)
	v.SetDefault("separators", []string{",", ";", "\t", "|"})
	v.SetDefault("output_dir", "output")
	v.SetDefault("visualizations_dir", "visualizations")
	v.SetDefault("report_file", "analysis_report.txt")
	v.SetDefault("histogram_bins", 50)
	v.SetDefault("max_chart_columns", 3)
	v.SetDefault("max_chart_bars", 10)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".datapipe"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			_ = v.ReadInConfig()
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the configuration as YAML to path, creating parent
// directories as needed.
func Save(c *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk_size must be positive"))
	}
	if c.NumericSampleCap <= 0 {
		errs = append(errs, errors.New("numeric_sample_cap must be positive"))
	}
	if c.TopK <= 0 {
		errs = append(errs, errors.New("top_k must be positive"))
	}
	if c.MaxDistinct < 0 {
		errs = append(errs, errors.New("max_distinct cannot be negative"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers cannot be negative"))
	}
	for _, sep := range c.Separators {
		if len([]rune(sep)) != 1 {
			errs = append(errs, fmt.Errorf("separator %q must be a single character", sep))
		}
	}
	if c.HistogramBins <= 0 {
		errs = append(errs, errors.New("histogram_bins must be positive"))
	}
	return errors.Join(errs...)
}

// CreateDirectories creates the output and visualizations directories.
func (c *Config) CreateDirectories() error {
	for _, dir := range []string{c.OutputDir, c.VisualizationsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SeparatorRunes converts the configured separators to the candidate
// list the sniffer expects, preserving priority order.
func (c *Config) SeparatorRunes() []rune {
	out := make([]rune, 0, len(c.Separators))
	for _, s := range c.Separators {
		r := []rune(s)
		if len(r) == 1 {
			out = append(out, r[0])
		}
	}
	return out
}

// Aggregate converts the configuration into the engine's run config.
func (c *Config) Aggregate() aggregate.Config {
	return aggregate.Config{
		ChunkSize:        c.ChunkSize,
		NumericSampleCap: c.NumericSampleCap,
		TopK:             c.TopK,
		MaxDistinct:      c.MaxDistinct,
		Workers:          c.Workers,
		Separators:       c.SeparatorRunes(),
	}
}

// EstimateMemoryMB gives a rough peak-memory estimate for processing a
// file of the given size: about twice the file size plus fixed
// overhead.
func EstimateMemoryMB(fileSizeBytes int64) float64 {
	return float64(fileSizeBytes)/(1024*1024)*2 + 500
}
