package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mediafx/internal/sequencer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, describeError(err))
		}
		stop()
		os.Exit(1)
	}
}

// describeError adds a hint for the sequencer error kinds.
func describeError(err error) string {
	switch {
	case sequencer.IsLifecycle(err):
		return fmt.Sprintf("%v\nhint: another mediafx render may be running against the same host", err)
	case sequencer.IsOperation(err):
		return fmt.Sprintf("%v\nhint: the host rejected the operation; check that every source is readable media", err)
	case sequencer.IsInvalidHandle(err):
		return fmt.Sprintf("%v\nhint: a timeline entry was removed or its session ended", err)
	default:
		return err.Error()
	}
}
