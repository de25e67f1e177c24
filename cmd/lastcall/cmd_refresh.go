package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the vector index snapshot once",
		Long: `refresh embeds every active, in-stock catalog item, persists the new
snapshot and reports the result. Items whose embedding fails are skipped;
if nothing could be embedded the persisted snapshot is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(ctx, s)
			if err != nil {
				return err
			}
			defer rt.Close()

			job, err := rt.refreshJob()
			if err != nil {
				return err
			}
			report, err := job.Run(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"total":       report.Total,
				"embedded":    report.Embedded,
				"failed":      report.Failed,
				"dropped":     report.Dropped,
				"dim":         report.Dim,
				"version":     report.Version,
				"duration_ms": report.Duration.Milliseconds(),
			})
		},
	}
}
