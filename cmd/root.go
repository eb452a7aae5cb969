package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/datascribe-cli/datascribe/internal/ai"
	"github.com/datascribe-cli/datascribe/internal/analysis"
	"github.com/datascribe-cli/datascribe/internal/chart"
	cfgpkg "github.com/datascribe-cli/datascribe/internal/config"
	"github.com/datascribe-cli/datascribe/internal/dataset"
	"github.com/datascribe-cli/datascribe/internal/report"
	"github.com/datascribe-cli/datascribe/internal/utils"
)

var (
	// Global flags (overrides applied on top of config)
	cfgFile         string
	debug           bool
	flagModel       string
	flagHTTPTimeout int
	flagRetryMax    int
	flagRetryDelay  int

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})
)

var rootCmd = &cobra.Command{
	Use:   "datascribe <dataset.csv>",
	Short: "Analyze a CSV and produce an AI-narrated Markdown report",
	Long: `Datascribe ingests a single CSV dataset, computes descriptive statistics,
renders a correlation heatmap and a rating-distribution histogram, asks a
chat-completion model for a narrative summary, and assembles everything into
one Markdown report next to the generated images.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datascribe/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "chat-completion model identifier (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeout, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMax, "retry-max", 0, "max attempts for the insight request (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryDelay, "retry-delay", 0, "fixed delay between attempts in seconds (overrides config)")
}

func loadConfig() {
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}
	if f.Changed("http-timeout") && flagHTTPTimeout > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeout
	}
	if f.Changed("retry-max") && flagRetryMax > 0 {
		cfg.RetryMaxAttempts = flagRetryMax
	}
	if f.Changed("retry-delay") && flagRetryDelay > 0 {
		cfg.RetryDelaySec = flagRetryDelay
	}
}

// run executes the five pipeline stages in order: load, analyze, visualize,
// request insights, write the report. Any returned error aborts the run.
func run(path string) error {
	ds, err := dataset.Load(path)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	fmt.Printf("Loaded dataset with %d rows and %d columns.\n", ds.RowCount, len(ds.Columns))

	res := analysis.Analyze(ds)
	logger.Debug("analysis complete",
		"columns", len(res.Stats),
		"numeric", corrSize(res))

	folder := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := utils.EnsureDir(folder); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}

	renderCharts(ds, res, folder)

	if cfg.APIKey == "" {
		return errors.New("OPENAI_API_KEY not set")
	}

	client := ai.NewClientWithBaseURL(
		cfg.APIKey,
		time.Duration(cfg.HTTPTimeoutSec)*time.Second,
		cfg.RetryMaxAttempts,
		time.Duration(cfg.RetryDelaySec)*time.Second,
		cfg.BaseURL,
	)
	insights, err := client.Complete(context.Background(), ai.CompletionRequest{
		Model: cfg.Model,
		Messages: []ai.Message{
			{Role: "system", Content: ai.SystemPersona},
			{Role: "user", Content: ai.BuildDigest(ds, res)},
		},
	})
	if err != nil {
		return fmt.Errorf("insight request: %w", err)
	}
	logger.Debug("insight received", "chars", len(insights))

	if err := report.Write(folder, ds.Name, res, insights); err != nil {
		return err
	}
	fmt.Printf("✓ Analysis complete. Output saved in `%s/README.md` and PNG files.\n", folder)
	return nil
}

// renderCharts attempts each chart independently; a failure of one is
// reported as a warning and never blocks the other.
func renderCharts(ds *dataset.Dataset, res *analysis.Result, folder string) {
	if !res.Corr.Empty() {
		if err := chart.Heatmap(res.Corr, filepath.Join(folder, report.HeatmapFile)); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: correlation heatmap skipped: %v\n", err)
		} else {
			logger.Debug("heatmap written", "file", report.HeatmapFile)
		}
	}
	if col := ds.Column("average_rating"); col != nil {
		if err := chart.RatingHistogram(col.NonMissing(), filepath.Join(folder, report.HistogramFile)); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: rating histogram skipped: %v\n", err)
		} else {
			logger.Debug("histogram written", "file", report.HistogramFile)
		}
	}
}

func corrSize(res *analysis.Result) int {
	if res.Corr.Empty() {
		return 0
	}
	return len(res.Corr.Columns)
}
