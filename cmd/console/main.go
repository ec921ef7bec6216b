package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/rag-console/internal/builder"
	"github.com/futig/rag-console/internal/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := console.Execute(ctx, builder.ConsoleConnector(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
