package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/intentflow/pkg/adapters/memory"
	"github.com/aretw0/intentflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_CopiesBytes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	data := []byte(`{"name":"a"}`)
	require.NoError(t, store.Save(ctx, "a", data))
	data[0] = 'X'

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a"}`, string(loaded))

	loaded[0] = 'Y'
	again, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0])

	assert.Error(t, store.Save(ctx, "", data))
}
