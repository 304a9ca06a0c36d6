package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harun/toolgate/internal/tracing"
	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/harun/toolgate/pkg/toolexport"
	"github.com/spf13/cobra"
)

func newToolsCmd(opts *options) *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List, execute and export tools",
	}
	toolsCmd.AddCommand(
		newToolsListCmd(opts),
		newToolsExecCmd(opts),
		newToolsExportCmd(opts),
	)
	return toolsCmd
}

func newToolsListCmd(opts *options) *cobra.Command {
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools the caller may use",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			defs := rt.engine.ToolsFor(rt.caller)
			if category != "" {
				cat, err := toolexecutor.ParseCategory(category)
				if err != nil {
					return err
				}
				defs = toolexecutor.FilterByCategory(defs, cat)
			}

			if asJSON {
				type listedTool struct {
					Name          string `json:"name"`
					Description   string `json:"description"`
					Category      string `json:"category"`
					SecurityLevel string `json:"security_level"`
					RateLimit     int    `json:"rate_limit"`
					Timeout       string `json:"timeout"`
				}
				listed := make([]listedTool, 0, len(defs))
				for _, def := range defs {
					listed = append(listed, listedTool{
						Name:          def.Name,
						Description:   def.Description,
						Category:      string(def.Category),
						SecurityLevel: string(def.SecurityLevel),
						RateLimit:     def.RateLimit,
						Timeout:       def.Timeout.String(),
					})
				}
				return writeJSON(cmd.OutOrStdout(), listed)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tLEVEL\tLIMIT/MIN\tTIMEOUT\tDESCRIPTION")
			for _, def := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					def.Name, def.Category, def.SecurityLevel, def.RateLimit, def.Timeout, def.Description)
			}
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&category, "category", "", "only list tools in this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newToolsExecCmd(opts *options) *cobra.Command {
	var rawArgs string
	var repeat int

	cmd := &cobra.Command{
		Use:   "exec <tool>",
		Short: "Execute a tool as the configured caller",
		Long: `Execute a tool as the configured caller and print the execution result.
With --repeat the call is issued several times in a row, which shows the
per-minute rate limit at work. The command fails if the last call failed.`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			params := map[string]interface{}{}
			if strings.TrimSpace(rawArgs) != "" {
				if err := json.Unmarshal([]byte(rawArgs), &params); err != nil {
					return fmt.Errorf("invalid --args JSON: %w", err)
				}
			}
			if repeat < 1 {
				repeat = 1
			}

			ctx := tracing.NewRequestContext(cmd.Context())
			var result toolexecutor.ExecutionResult
			for i := 0; i < repeat; i++ {
				result = rt.engine.ExecuteTool(ctx, args[0], params, rt.caller)
				if err := writeJSON(cmd.OutOrStdout(), resultView(result)); err != nil {
					return err
				}
			}
			return result.Err()
		}),
	}

	cmd.Flags().StringVar(&rawArgs, "args", "", `tool arguments as a JSON object, e.g. '{"message":"hi"}'`)
	cmd.Flags().IntVar(&repeat, "repeat", 1, "number of times to execute the tool")
	return cmd
}

func newToolsExportCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the caller's tools as provider tool definitions",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			tools := toolexport.Tools(rt.engine.ExportFor(rt.caller))
			switch format {
			case "anthropic":
				return writeJSON(cmd.OutOrStdout(), tools.Anthropic())
			case "openai":
				return writeJSON(cmd.OutOrStdout(), tools.OpenAI())
			case "schema":
				return writeJSON(cmd.OutOrStdout(), tools)
			default:
				return fmt.Errorf("unknown export format %q (anthropic, openai, schema)", format)
			}
		}),
	}

	cmd.Flags().StringVar(&format, "format", "schema", "anthropic, openai or schema")
	return cmd
}

type executionView struct {
	Success     bool        `json:"success"`
	Tool        string      `json:"tool"`
	User        string      `json:"user_id"`
	ExecutionID string      `json:"execution_id"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorKind   string      `json:"error_kind,omitempty"`
	DurationMs  int64       `json:"duration_ms"`
}

func resultView(r toolexecutor.ExecutionResult) executionView {
	return executionView{
		Success:     r.Success,
		Tool:        r.ToolName,
		User:        r.UserID,
		ExecutionID: r.ExecutionID,
		Result:      r.Result,
		Error:       r.Error,
		ErrorKind:   string(r.ErrorKind),
		DurationMs:  r.Duration.Milliseconds(),
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
