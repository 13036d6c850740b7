// Package cli wires the commands of the meters demo.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Alp4ka/keyset/internal/config"
)

// app holds what the persistent pre-run resolved for the subcommands.
type app struct {
	cfg   *config.Config
	debug bool
}

// NewRootCmd creates the root command of the meters demo.
func NewRootCmd() *cobra.Command {
	a := &app{}

	var (
		configPath string
		envPath    string
	)

	cmd := &cobra.Command{
		Use:   "meters",
		Short: "Keyset pagination demo over meters and resources",
		Long: `meters seeds a small metering data set and lists the latest meter of every
(resource, counter) pair page by page, continuing each page from the last row
of the previous one instead of an offset.`,
		Example:      rootCmdExample,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadDotEnv(envPath)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.debug, _ = cmd.Flags().GetBool("debug")
			setupLogging(cmd, cfg.Log, a.debug)

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "path to a .env file")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging and SQL tracing")
	cmd.AddCommand(newSeedCmd(a), newListCmd(a))

	return cmd
}

const rootCmdExample = `  # Create and fill the tables
  meters seed

  # First page
  meters list --limit 3

  # Page after the row (odd, id7)
  meters list --limit 3 --counter-name odd --resource-id id7

  # Page after a token printed by the previous page
  meters list --token <token>

  # Everything at once
  meters list --limit -1`
