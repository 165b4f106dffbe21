package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/xoso-draws/internal/config"
	"github.com/pfrederiksen/xoso-draws/internal/export"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/pipeline"
	"github.com/pfrederiksen/xoso-draws/internal/region"
	"github.com/pfrederiksen/xoso-draws/internal/scraper"
	"github.com/pfrederiksen/xoso-draws/internal/store"
)

const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitRegionFailed = 3
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// options holds the persistent flags shared by every command.
type options struct {
	configFile string
	dataDir    string
	baseURL    string
	regions    []string
	logLevel   string
	logFormat  string
	logFile    string
	format     string
	verbose    bool
}

// overrides maps explicitly set flags to config keys.
func (o *options) overrides(cmd *cobra.Command, extra map[string]string) map[string]interface{} {
	keys := map[string]string{
		"data-dir":   "data_dir",
		"base-url":   "base_url",
		"regions":    "regions",
		"log-level":  "log.level",
		"log-format": "log.format",
		"log-file":   "log.file",
	}
	for flag, key := range extra {
		keys[flag] = key
	}

	out := make(map[string]interface{})
	flags := cmd.Flags()
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch flag {
		case "regions", "formats":
			v, _ := flags.GetStringSlice(flag)
			out[key] = v
		case "retries":
			v, _ := flags.GetInt(flag)
			out[key] = v
		default:
			out[key] = f.Value.String()
		}
	}
	if o.verbose && !flags.Changed("log-level") {
		out["log.level"] = "debug"
	}
	return out
}

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	closer  io.Closer
	loc     *time.Location
	dataDir string
	regions []region.Region
	format  OutputFormat
	out     io.Writer
}

func (e *env) Close() error {
	return e.closer.Close()
}

func (o *options) setup(cmd *cobra.Command, extra map[string]string) (*env, error) {
	format := OutputFormat(strings.ToLower(o.format))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", o.format)
	}

	cfg, err := config.Load(o.configFile, o.overrides(cmd, extra))
	if err != nil {
		return nil, err
	}

	logOpts := cfg.LoggerOptions()
	logOpts.Output = cmd.ErrOrStderr()
	log, closer, err := logger.Open(logOpts)
	if err != nil {
		return nil, err
	}

	dir, err := store.Dir(cfg.DataDir)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	// Validate has already resolved both of these.
	loc, _ := cfg.Location()
	regions, _ := region.Parse(cfg.Regions)

	return &env{
		cfg:     cfg,
		log:     log,
		closer:  closer,
		loc:     loc,
		dataDir: dir,
		regions: regions,
		format:  format,
		out:     cmd.OutOrStdout(),
	}, nil
}

// pipeline builds a pipeline; fetch and export are optional.
func (e *env) pipeline(withFetcher, withExporter bool) (*pipeline.Pipeline, error) {
	opts := pipeline.Options{DataDir: e.dataDir, Logger: e.log, Metrics: logger.NewMetrics()}

	if withFetcher {
		client := scraper.New(
			scraper.WithBaseURL(e.cfg.BaseURL),
			scraper.WithUserAgent(e.cfg.UserAgent),
			scraper.WithTimeout(e.cfg.Timeout),
		)
		opts.Fetcher = scraper.WithRetry(client, e.cfg.RetryPolicy(), func(err error, wait time.Duration) {
			e.log.Warn("Fetch failed, retrying", logger.Fields{"error": err.Error(), "wait": wait.String()})
		})
	}

	if withExporter {
		formats, err := export.ParseFormats(e.cfg.Export.Formats)
		if err != nil {
			return nil, err
		}
		opts.Exporter = export.New(e.dataDir, formats...)
	}
	return pipeline.New(opts), nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "xoso-draws",
		Short: "Collect Vietnamese lottery results and derive analysis tables",
		Long: `A CLI tool to collect daily lottery results for the MB, MN and MT regions.
Keeps one records file per region, fetching only dates it does not have yet,
and writes raw, two-digit and sparse histogram tables as CSV and Parquet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "Config file (default ./xoso.yaml if present)")
	pf.StringVar(&o.dataDir, "data-dir", "~/.local/share/xoso-draws", "Data directory for records and views")
	pf.StringVar(&o.baseURL, "base-url", scraper.DefaultBaseURL, "Results site base URL")
	pf.StringSliceVar(&o.regions, "regions", []string{"all"}, "Regions to process: MB, MN, MT or all")
	pf.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&o.logFormat, "log-format", "json", "Log format: json or text")
	pf.StringVar(&o.logFile, "log-file", "", "Also write logs to this rotating file")
	pf.StringVar(&o.format, "format", "text", "Output format: text or json")
	pf.BoolVar(&o.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newFetchCmd(o), newViewsCmd(o), newStatsCmd(o), newServeCmd(o))
	return cmd
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the CLI and exits with its status.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the CLI with args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return ExitError
	}
	return ExitSuccess
}
