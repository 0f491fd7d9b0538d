package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSeenStore_MarkAndCheck(t *testing.T) {
	seen, err := SeenFromMemory(time.Hour)
	require.NoError(t, err)
	defer seen.Close()

	const link = "https://example.com/doge-to-the-moon"

	require.False(t, seen.Seen(link))
	require.NoError(t, seen.MarkSeen(link))
	require.True(t, seen.Seen(link))
	require.False(t, seen.Seen("https://example.com/other"))
}

func TestSeenStore_NoTTL(t *testing.T) {
	seen, err := SeenFromMemory(0)
	require.NoError(t, err)
	defer seen.Close()

	require.NoError(t, seen.MarkSeen("link"))
	require.True(t, seen.Seen("link"))
}
