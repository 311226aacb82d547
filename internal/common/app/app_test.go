package app

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithShutdown(t *testing.T) {
	signals := make(chan os.Signal, 2)
	exited := make(chan int, 1)
	ctx := withShutdown(context.Background(), signals, func(code int) { exited <- code })

	assert.NoError(t, ctx.Err())

	signals <- syscall.SIGINT
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.Empty(t, exited)

	signals <- syscall.SIGTERM
	select {
	case code := <-exited:
		assert.Equal(t, 130, code)
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestWithShutdown_ParentCancelled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := withShutdown(parent, make(chan os.Signal), func(int) { t.Error("unexpected exit") })

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
