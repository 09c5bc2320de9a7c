// Apostol keeps an offline copy of the catechesis content and serves it
// from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidiaz1251/apostolV2/internal/cli"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx, Version); err != nil {
		os.Exit(1)
	}
}
