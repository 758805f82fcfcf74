package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"balance-report/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "balance_report: %v\n", err)
		os.Exit(1)
	}
}
