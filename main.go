// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Royarind/checkout-engine/cmd"
)

// main is the entry point for the checkout-engine CLI.
func main() {
	// Interrupts cancel the command context so in-flight sessions close
	// cleanly instead of leaving a browser process behind.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
