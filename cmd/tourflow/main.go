// Command tourflow is the offline workspace CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tourflow/tourflow/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Stdout, os.Args[1:])
	stop()
	os.Exit(code)
}
