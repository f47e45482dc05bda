package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		payload := []byte(`{"name":"bot","version":"1.0"}`)
		require.NoError(t, store.Save(ctx, name, payload), "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, payload, loaded)

		payload[0] = 'X'
		again, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, byte('{'), again[0], "store must not alias the caller's buffer")
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("first")))
		require.NoError(t, store.Save(ctx, name, []byte("second")))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+name)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("doomed")))
		require.NoError(t, store.Delete(ctx, name), "Delete should not return error")

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, name), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		require.NoError(t, store.Save(ctx, id1, []byte("a")))
		require.NoError(t, store.Save(ctx, id2, []byte("b")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})

	t.Run("Empty Name", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, "", []byte("x")))
	})
}
