// Package cipsignal provides a context that cancels on SIGINT/SIGTERM, so a
// running solve can unwind through the engine's normal context-cancellation
// path instead of being killed mid-node.
package cipsignal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Context returns a context cancelled on the first SIGINT/SIGTERM. A second
// signal terminates the process immediately with exit code 1, for a solve
// that ignores cancellation.
func Context() context.Context {
	c := make(chan os.Signal, 2)
	signal.Notify(c, shutdownSignals...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
