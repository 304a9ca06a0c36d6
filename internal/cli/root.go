package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// options holds the persistent flag values of one command tree
type options struct {
	cfgFile  string
	logLevel string
	userID   string
}

// NewRootCmd builds the command tree. Each call returns independent flag state.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "toolgate",
		Short: "toolgate - tool registry and secure execution engine",
		Long: `toolgate keeps a catalog of callable tools and executes them on behalf of
callers with security level checks, per-user rate limits, argument validation
and timeouts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.toolgate/toolgate.json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", "", "execute as this user instead of caller.user_id")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	rootCmd.AddCommand(
		newToolsCmd(opts),
		newStatsCmd(opts),
		newHistoryCmd(opts),
		newConfigureCmd(opts),
	)

	return rootCmd
}

// Execute runs the CLI. It is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
