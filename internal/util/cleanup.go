package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// InterruptContext returns a context cancelled on the first SIGINT/SIGTERM.
// A second signal exits immediately.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
		case <-ctx.Done():
			signal.Stop(sig)
			return
		}

		fmt.Println("\nInterrupt received. Stopping after the current page...")
		cancel()

		<-sig
		fmt.Println("\nExiting due to interrupt.")
		os.Exit(1)
	}()

	return ctx, cancel
}

func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	if len(entries) == 0 {
		return os.Remove(dir) == nil
	}

	return false
}

func CleanupFolder(folder string) error {
	return os.RemoveAll(folder)
}
