// Package cli implements the measurelink command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/MeasureLink/internal/application/extraction"
	"github.com/turtacn/MeasureLink/internal/config"
	"github.com/turtacn/MeasureLink/internal/engine/pattern"
	"github.com/turtacn/MeasureLink/internal/engine/relation"
	"github.com/turtacn/MeasureLink/internal/infrastructure/annotator"
	"github.com/turtacn/MeasureLink/internal/infrastructure/detector"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Extractor is the pipeline surface the CLI commands run against.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]*mtypes.Extraction, error)
}

// ExtractorFactory builds the pipeline once the command line is parsed.
// Tests substitute a fake.
type ExtractorFactory func(opts *RootOptions) (Extractor, error)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Verbose    bool
}

// NewRootCommand assembles the command tree.  A nil factory wires the real
// pipeline from configuration.
func NewRootCommand(factory ExtractorFactory) *cobra.Command {
	opts := &RootOptions{}
	if factory == nil {
		factory = buildPipeline
	}

	cmd := &cobra.Command{
		Use:   "measurelink",
		Short: "Extract measurements and their related words from text",
		Long: "measurelink runs sentences through a linguistic annotator and a\n" +
			"measurement detector, then walks each sentence's dependency graph to\n" +
			"find the words a measurement talks about.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newExtractCmd(opts, factory),
		newRulesCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the CLI and reports failures on stderr.
func Execute() int {
	cmd := NewRootCommand(nil)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

// loadConfig resolves configuration from the --config flag or defaults.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadFromEnv()
}

// cliLogger builds a stderr console logger so stdout stays parseable.
func cliLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// buildPipeline wires the real extraction service from configuration.
// The CLI skips the optional cache and publisher: a one-shot invocation
// gains nothing from them.
func buildPipeline(opts *RootOptions) (Extractor, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := cliLogger(opts)
	if err != nil {
		return nil, err
	}

	rules, err := pattern.Load(cfg.Patterns.Path)
	if err != nil {
		return nil, err
	}

	return extraction.NewService(extraction.Options{
		Annotator: annotator.NewHTTPClient(annotator.Config{
			Endpoint: cfg.Annotator.Endpoint,
			Timeout:  cfg.Annotator.Timeout,
		}, logger),
		Detector: detector.NewHTTPClient(detector.Config{
			Endpoint: cfg.Detector.Endpoint,
			Timeout:  cfg.Detector.Timeout,
		}, logger),
		Engine:      relation.New(rules, logger),
		Logger:      logger,
		Concurrency: cfg.Worker.Concurrency,
	}), nil
}
