package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newSyncLogsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sync-logs",
		Short: "Show recent background sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			entries, err := client.SyncLogs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sync runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				finished := "-"
				duration := "-"
				if e.FinishedAt != nil {
					finished = e.FinishedAt.Local().Format("2006-01-02 15:04:05")
					duration = e.FinishedAt.Sub(e.StartedAt).Round(time.Millisecond).String()
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.JobName,
					e.Status,
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					finished,
					duration,
					deref(e.Detail),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderTable(
				[]string{"ID", "Job", "Status", "Started", "Finished", "Duration", "Detail"}, rows, 0))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}
