package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *options) *cobra.Command {
	var prometheus bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and execution statistics",
		Long: `Show catalog statistics. When the execution archive is enabled the
archived execution counts per tool are included.`,
		Args: cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if prometheus {
				return rt.metrics.WriteText(cmd.OutOrStdout())
			}

			out := map[string]interface{}{
				"engine": rt.engine.Statistics(),
			}
			if rt.archive != nil {
				counts, err := rt.archive.CountByTool(cmd.Context())
				if err != nil {
					return err
				}
				out["archived_executions"] = counts
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}),
	}

	cmd.Flags().BoolVar(&prometheus, "prometheus", false, "print metrics in the Prometheus text format")
	return cmd
}
