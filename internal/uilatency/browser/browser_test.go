package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/uilatency/internal/uilatency/document"
)

func TestCallWith(t *testing.T) {
	tests := map[string]struct {
		args any
		want string
	}{
		"no args":     {args: nil, want: "(() => 1)()"},
		"single arg":  {args: "li.item", want: `(() => 1)(...["li.item"])`},
		"spread args": {args: []any{"a", 2}, want: `(() => 1)(...["a",2])`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := callWith("() => 1", tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKeyInput(t *testing.T) {
	assert.Equal(t, kb.Enter, keyInput("Enter"))
	assert.Equal(t, kb.ArrowDown, keyInput("ArrowDown"))
	assert.Equal(t, "a", keyInput("a"))
}

func TestReadyStates(t *testing.T) {
	assert.Nil(t, readyStates(document.WaitUntilCommit))
	assert.True(t, readyStates(document.WaitUntilDOMContentLoaded)["interactive"])
	assert.False(t, readyStates(document.WaitUntilLoad)["interactive"])
	assert.True(t, readyStates(document.WaitUntilNetworkIdle)["complete"])
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
