package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/pipeline"
	"github.com/pfrederiksen/xoso-draws/internal/stats"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// FetchResult is the outcome of a fetch or views run.
type FetchResult struct {
	RunID     string             `json:"run_id"`
	StartedAt time.Time          `json:"started_at"`
	Regions   []pipeline.Summary `json:"regions"`
	Metrics   logger.Snapshot    `json:"metrics"`
}

// RegionStats is the statistics report of one region.
type RegionStats struct {
	Region string       `json:"region"`
	Report stats.Report `json:"report"`
}

// StatsResult is the outcome of the stats command.
type StatsResult struct {
	Regions []RegionStats `json:"regions"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *FetchResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteStats writes a statistics result in the specified format.
func WriteStats(w io.Writer, result *StatsResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeStatsText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *FetchResult, verbose bool) error {
	if len(result.Regions) == 0 {
		fmt.Fprintln(w, "No regions processed.")
		return nil
	}

	for _, s := range result.Regions {
		status := "ok"
		if s.Err != nil {
			status = "FAILED"
		}
		fmt.Fprintf(w, "\n%s (%s):\n", s.Region, status)
		if s.From != "" {
			fmt.Fprintf(w, "  Dates:   %s to %s (%d requested)\n", s.From, s.To, s.Requested)
			fmt.Fprintf(w, "  Fetched: %d, skipped: %d, failed: %d\n", s.Fetched, s.Skipped, s.Failed)
		}
		fmt.Fprintf(w, "  Records: %d\n", s.Records)
		if s.Err != nil {
			fmt.Fprintf(w, "  Error:   %v\n", s.Err)
		}
		if verbose {
			for _, f := range s.Files {
				fmt.Fprintf(w, "  Wrote:   %s\n", filepath.Base(f))
			}
		}
	}

	if verbose {
		if names := result.Metrics.Names(); len(names) > 0 {
			fmt.Fprintln(w, "\nMetrics:")
			for _, n := range names {
				fmt.Fprintf(w, "  %s: %d\n", n, result.Metrics.Counter(n))
			}
		}
	}
	fmt.Fprintf(w, "\nRun: %s\n", result.RunID)
	return nil
}

func writeStatsText(w io.Writer, result *StatsResult) error {
	for _, rs := range result.Regions {
		r := rs.Report
		fmt.Fprintf(w, "\n%s (%d rows, as of %s):\n", rs.Region, r.Rows, r.AsOf)
		if r.Rows == 0 {
			fmt.Fprintln(w, "  No data available.")
			continue
		}

		freq := make([]string, 0, len(r.MostFrequent))
		for _, c := range r.MostFrequent {
			freq = append(freq, fmt.Sprintf("%s×%d", c.Number, c.Count))
		}
		fmt.Fprintf(w, "  Most frequent: %s\n", strings.Join(freq, " "))

		absent := make([]string, 0, len(r.LeastRecent))
		for _, a := range r.LeastRecent {
			if a.Never {
				absent = append(absent, a.Number+"(never)")
			} else {
				absent = append(absent, fmt.Sprintf("%s(%dd)", a.Number, a.Days))
			}
		}
		fmt.Fprintf(w, "  Least recent:  %s\n", strings.Join(absent, " "))
	}
	return nil
}
