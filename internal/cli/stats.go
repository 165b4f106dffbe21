package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/stats"
	"github.com/pfrederiksen/xoso-draws/internal/view"
)

func newStatsCmd(o *options) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the most frequent and longest-absent two-digit numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 1 || top > 100 {
				return fmt.Errorf("--top must be between 1 and 100")
			}
			e, err := o.setup(cmd, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.pipeline(false, false)
			if err != nil {
				return err
			}

			today := draw.DateOf(time.Now().In(e.loc))
			result := &StatsResult{}
			for _, r := range e.regions {
				set := view.Generate(r.Schema, p.Open(r).Rows())
				result.Regions = append(result.Regions, RegionStats{
					Region: r.Code,
					Report: stats.Analyze(set.TwoDigit, today, top),
				})
			}
			return WriteStats(e.out, result, e.format)
		},
	}
	cmd.Flags().IntVar(&top, "top", stats.DefaultTop, "Numbers to list per ranking")
	return cmd
}
