package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/reqkit/internal/cli"
)

// Main is the entry point for the application.
// It's exported to make it testable.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func main() {
	os.Exit(Main())
}
