package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/pipeline"
)

type fetchOptions struct {
	from      string
	to        string
	days      int
	sinceLast bool
}

func newFetchCmd(o *options) *cobra.Command {
	fo := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch draws for a date range and refresh the view files",
		Long: `Fetch draws for each region over a date range. Dates already stored are
skipped. Without --to, the range ends at the latest draw whose results are
published (Vietnam time); without --from it starts --days earlier.

Exits with status 3 when any region fails to persist or export.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, o, fo)
		},
	}

	cmd.Flags().StringVar(&fo.from, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fo.to, "to", "", "Last date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&fo.days, "days", pipeline.DefaultDays, "Days before the end date to start from")
	cmd.Flags().BoolVar(&fo.sinceLast, "since-last", false, "Start the day after the newest stored date (ignored with --from)")
	cmd.Flags().StringSlice("formats", nil, "View file formats: csv, parquet")
	cmd.Flags().Int("retries", 3, "Fetch attempts per date")
	return cmd
}

func runFetch(cmd *cobra.Command, o *options, fo *fetchOptions) error {
	from, to, err := fo.dates()
	if err != nil {
		return err
	}
	if fo.days < 0 {
		return fmt.Errorf("--days must not be negative")
	}

	e, err := o.setup(cmd, map[string]string{"formats": "export.formats", "retries": "retry.max_attempts"})
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := e.pipeline(true, true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	result := &FetchResult{RunID: p.RunID(), StartedAt: time.Now().UTC()}
	now := time.Now()
	for _, r := range e.regions {
		start, end := pipeline.Window(r, now, e.loc, fo.days)
		if !to.IsZero() {
			end = to
			start = to.AddDays(-fo.days)
		}
		if !from.IsZero() {
			start = from
		}
		if fo.sinceLast && from.IsZero() {
			start = pipeline.SinceLast(p.Open(r), start)
		}
		result.Regions = append(result.Regions, p.Run(ctx, r, start, end))
	}
	result.Metrics = p.Metrics().Snapshot()

	if err := WriteOutput(e.out, result, e.format, o.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if pipeline.Failed(result.Regions) {
		return &exitError{code: ExitRegionFailed, err: fmt.Errorf("%d of %d regions failed", countFailed(result.Regions), len(result.Regions))}
	}
	return nil
}

func (fo *fetchOptions) dates() (from, to draw.Date, err error) {
	if fo.from != "" {
		if from, err = draw.ParseDate(fo.from); err != nil {
			return from, to, fmt.Errorf("--from: %w", err)
		}
	}
	if fo.to != "" {
		if to, err = draw.ParseDate(fo.to); err != nil {
			return from, to, fmt.Errorf("--to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return from, to, nil
}

func countFailed(sums []pipeline.Summary) int {
	n := 0
	for _, s := range sums {
		if s.Err != nil {
			n++
		}
	}
	return n
}
