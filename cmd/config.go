package cmd

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/spf13/cobra"
)

// getConfigCmd returns the config command that prints the effective
// configuration.
func getConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		Long: `Show configuration after config file, environment variables
and defaults are merged. The database password is not shown.

Examples:
  sparkdl config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bs, err := cfg.ToYAML()
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			gn.Info("Config file: <em>%s</em>", config.ConfigFilePath(cfg.HomeDir))
			fmt.Fprint(cmd.OutOrStdout(), string(bs))
			return nil
		},
	}
}
