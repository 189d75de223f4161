package websocket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanMessageStripsANSI(t *testing.T) {
	t.Parallel()

	require.Equal(t, "build ok", cleanMessage("\x1b[32mbuild ok\x1b[0m"))
}

func TestCleanMessageStripsControlChars(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a\tb", cleanMessage("a\tb\r"))
	require.Equal(t, "line", cleanMessage("  line \x07"))
}
