package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"balance-report/config"
	"balance-report/report"
)

func newConfigCmd(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}
	cmd.AddCommand(newConfigValidateCmd(ro))
	return cmd
}

func newConfigValidateCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the config (with env overrides) and check every exchange resolves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnvOverrides(ro.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if _, err := report.BuildSources(cfg, ro.registry, gatewayOptions(cfg)); err != nil {
				return err
			}
			if _, err := report.OptionsFromConfig(cfg.Report); err != nil {
				return err
			}
			enabled := 0
			for _, b := range cfg.Brokers {
				if b.Enabled {
					enabled++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: %s (%d of %d exchanges enabled)\n", ro.configPath, enabled, len(config.ExchangeOrder))
			return nil
		},
	}
}
