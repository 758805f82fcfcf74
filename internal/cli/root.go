// Package cli 组装 balance_report 命令行。
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"balance-report/config"
	"balance-report/gateway"
	"balance-report/infrastructure/logger"
	"balance-report/market"
	"balance-report/metrics"
	"balance-report/report"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
	registry   *gateway.Registry
}

// NewRootCmd 不带子命令运行时输出一次余额报表。
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	ro := &rootOptions{registry: gateway.DefaultRegistry()}
	cmd := &cobra.Command{
		Use:   "balance_report",
		Short: "Print cash balances across Japanese BTC exchanges",
		Long: `balance_report visits bitFlyer, Coincheck, Quoine, bitbank and btcbox in
that order and prints one row per balance, followed by JPY/BTC totals and
the total value at the latest BTC/JPY price.

Credentials come from the config file or BALANCE_<BROKER>_KEY /
BALANCE_<BROKER>_SECRET environment variables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), ro, cmd.OutOrStdout())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVarP(&ro.configPath, "config", "c", defaultConfigPath, "path to config file")

	cmd.AddCommand(
		newConfigCmd(ro),
		newExchangesCmd(ro),
	)
	return cmd
}

// Execute 运行根命令；错误由调用方输出。
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func runReport(ctx context.Context, ro *rootOptions, stdout io.Writer) error {
	cfg, err := config.LoadWithEnvOverrides(ro.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	base, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer base.Close()
	log := base.WithFields(map[string]interface{}{"config": ro.configPath})

	sources, err := report.BuildSources(cfg, ro.registry, gatewayOptions(cfg))
	if err != nil {
		return err
	}
	opts, err := report.OptionsFromConfig(cfg.Report)
	if err != nil {
		return err
	}
	ticker := market.NewTicker(cfg.Ticker.BaseURL, cfg.Ticker.Pair, cfg.HTTP.Timeout)

	var rec *metrics.Recorder
	if cfg.Metrics.PushgatewayURL != "" {
		rec = metrics.NewRecorder()
	}

	_, runErr := report.NewAggregator(sources, ticker, stdout, opts, log, rec).Run(ctx)
	if runErr != nil {
		log.Error("report aborted", zap.Error(runErr))
	}
	// 失败的运行也推送，fetch_errors_total 才有意义
	if err := rec.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		log.Warn("metrics push failed", zap.Error(err))
	}
	return runErr
}
