package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"balance-report/config"
	"balance-report/gateway"
)

func newExchangesCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exchanges",
		Short: "List exchanges in report order and whether each integration is compiled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BROKER\tLABEL\tINTEGRATION")
			for _, name := range config.ExchangeOrder {
				in := ro.registry.Lookup(name)
				state := "available"
				if !in.Available() {
					state = "unavailable"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, in.Label(), state)
			}
			for _, name := range ro.registry.Names() {
				if !inReportOrder(name) {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", name, gateway.Label(name), "registered, not reported")
				}
			}
			return tw.Flush()
		},
	}
}

func gatewayOptions(cfg config.AppConfig) gateway.Options {
	return gateway.Options{Timeout: cfg.HTTP.Timeout, RateLimit: cfg.HTTP.RateLimit}
}

func inReportOrder(name string) bool {
	for _, n := range config.ExchangeOrder {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
