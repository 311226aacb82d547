package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/armadaproject/uilatency/internal/common/logging"
)

// CreateContextWithShutdown returns a context that is cancelled on the first SIGINT or SIGTERM,
// letting the current measurement finish and partial results be written.
// A second signal exits the process immediately.
func CreateContextWithShutdown() context.Context {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return withShutdown(context.Background(), c, os.Exit)
}

func withShutdown(parent context.Context, signals <-chan os.Signal, exit func(code int)) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case sig := <-signals:
			logging.Warnf("received %s, stopping; send it again to exit immediately", sig)
			cancel()
		case <-ctx.Done():
			return
		}
		if sig, ok := <-signals; ok {
			logging.Errorf("received %s again, exiting", sig)
			exit(130)
		}
	}()
	return ctx
}
