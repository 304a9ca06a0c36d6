package cli

import (
	"fmt"
	"path/filepath"

	"github.com/harun/toolgate/internal/config"
	"github.com/spf13/cobra"
)

func newConfigureCmd(opts *options) *cobra.Command {
	var level string
	var role string
	var enableArchive bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write a config file with default values",
		Long: `Write a config file with default values and the given caller settings.
An existing file is overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if opts.userID != "" {
				cfg.Caller.UserID = opts.userID
			}
			cfg.Caller.SecurityLevel = level
			cfg.Caller.Role = role
			cfg.Archive.Enabled = enableArchive

			loader := config.NewLoader(opts.cfgFile)
			configPath, err := loader.Path()
			if err != nil {
				return err
			}
			if enableArchive && cfg.Archive.Path == "" {
				cfg.DataDir = filepath.Dir(configPath)
				cfg.Archive.Path = filepath.Join(cfg.DataDir, "executions.db")
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := loader.Save(cfg); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "basic", "caller security level (basic, enhanced, enterprise)")
	cmd.Flags().StringVar(&role, "role", "user", "caller role; admin bypasses security levels")
	cmd.Flags().BoolVar(&enableArchive, "archive", false, "enable the sqlite execution archive")
	return cmd
}
