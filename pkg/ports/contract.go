package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract verifies that a HistoryStore implementation adheres
// to the interface contract. Adapter test packages call it against their
// concrete store.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Append and History", func(t *testing.T) {
		first := Exchange{Input: "hello", Output: map[string]any{"text": "hi"}, Timestamp: time.Now().UTC()}
		second := Exchange{Input: "again", Output: "ok", Timestamp: time.Now().UTC()}

		require.NoError(t, store.Append(ctx, runID, first))
		require.NoError(t, store.Append(ctx, runID, second))

		history, err := store.History(ctx, runID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "hello", history[0].Input)
		assert.Equal(t, "again", history[1].Input)
	})

	t.Run("Unknown run is empty", func(t *testing.T) {
		history, err := store.History(ctx, "missing-"+runID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
