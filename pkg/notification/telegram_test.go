package notification

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	zerologger "github.com/raykavin/dogewatch/pkg/logger/zerolog"
	"github.com/raykavin/dogewatch/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

func nopLogger() *zerologger.Adapter {
	nop := zerolog.Nop()
	return zerologger.NewAdapter(&nop)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscribers.txt")
	store := storage.NewFileStore(path)

	require.NoError(t, subscribe(store, 42, nopLogger()))
	require.NoError(t, subscribe(store, 42, nopLogger()))

	subscribers, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 1, subscribers.Length())
	require.True(t, subscribers.InArray(42))

	// A single line survives the double round trip.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "42\n", string(data))
}

func TestSubscribeKeepsExistingEntries(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "subscribers.txt"))

	require.NoError(t, subscribe(store, 1, nopLogger()))
	require.NoError(t, subscribe(store, 2, nopLogger()))

	subscribers, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 2, subscribers.Length())
}

func TestUnsubscribeRemovesEntry(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "subscribers.txt"))

	require.NoError(t, subscribe(store, 1, nopLogger()))
	require.NoError(t, subscribe(store, 2, nopLogger()))
	require.NoError(t, unsubscribe(store, 1, nopLogger()))

	subscribers, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 1, subscribers.Length())
	require.False(t, subscribers.InArray(1))
	require.True(t, subscribers.InArray(2))
}

func TestUnsubscribeMissingEntryIsNoOp(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "subscribers.txt"))

	require.NoError(t, unsubscribe(store, 99, nopLogger()))

	subscribers, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 0, subscribers.Length())
}

func TestConnectWithRetryStopsSleepingAfterFinalAttempt(t *testing.T) {
	attempts := 0
	var slept []time.Duration

	_, err := connectWithRetry(
		func() (*tb.Bot, error) {
			attempts++
			return nil, fmt.Errorf("handshake failed")
		},
		func(d time.Duration) { slept = append(slept, d) },
	)

	require.Error(t, err)
	require.Equal(t, maxStartupAttempts, attempts)
	// No sleep follows the last failed attempt.
	require.Len(t, slept, maxStartupAttempts-1)
}

func TestConnectWithRetryReturnsFirstSuccess(t *testing.T) {
	attempts := 0
	want := &tb.Bot{}

	client, err := connectWithRetry(
		func() (*tb.Bot, error) {
			attempts++
			if attempts < 3 {
				return nil, fmt.Errorf("handshake failed")
			}
			return want, nil
		},
		func(time.Duration) {},
	)

	require.NoError(t, err)
	require.Same(t, want, client)
	require.Equal(t, 3, attempts)
}
