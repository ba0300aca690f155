// Command vidcompose renders the fixed grid composition test: three short
// clips placed into 960x540 cells over a black 1920x1080, six second canvas.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "vidcompose:", err)
		}
		stop()
		os.Exit(1)
	}
}
