// Command xcctl is the terminal client for the roster API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/xcroster/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cli.Main(ctx)
}
