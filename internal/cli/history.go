package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harun/toolgate/internal/archive"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var toolName string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived executions, newest first",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if err := rt.requireArchive(); err != nil {
				return err
			}

			var records []archive.ExecutionRecord
			var err error
			if toolName != "" {
				records, err = rt.archive.RecentFor(cmd.Context(), rt.caller.UserID, toolName, limit)
			} else {
				records, err = rt.archive.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTOOL\tUSER\tSTATUS\tDURATION\tERROR")
			for _, rec := range records {
				status := "ok"
				if !rec.Success {
					status = rec.ErrorKind
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
					rec.CreatedAt.Format(time.RFC3339), rec.ToolName, rec.UserID, status, rec.DurationMs, rec.Error)
			}
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&toolName, "tool", "", "only show the caller's executions of this tool")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of executions")
	return cmd
}
