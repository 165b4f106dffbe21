package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/xoso-draws/internal/pipeline"
)

func newViewsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Regenerate view files from stored records without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd, map[string]string{"formats": "export.formats"})
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.pipeline(false, true)
			if err != nil {
				return err
			}

			result := &FetchResult{RunID: p.RunID(), StartedAt: time.Now().UTC()}
			for _, r := range e.regions {
				result.Regions = append(result.Regions, p.Views(r))
			}
			if err := WriteOutput(e.out, result, e.format, o.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if pipeline.Failed(result.Regions) {
				return &exitError{code: ExitRegionFailed, err: fmt.Errorf("%d of %d regions failed", countFailed(result.Regions), len(result.Regions))}
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("formats", nil, "View file formats: csv, parquet")
	return cmd
}
