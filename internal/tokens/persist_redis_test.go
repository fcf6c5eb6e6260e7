package tokens

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisPersister(t *testing.T) *RedisPersister {
	t.Helper()
	mr := miniredis.RunT(t)
	persister := NewRedisPersister(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { persister.Close() })
	return persister
}

func TestRedisPersister_UpsertAndLoad(t *testing.T) {
	persister := newTestRedisPersister(t)
	ctx := context.Background()

	err := persister.Upsert(ctx, []Row{
		{OwnerID: "u1", Key: "FIRSTNAME", Value: "Sam"},
		{OwnerID: "u1", Key: "COMPANY", Value: "Acme"},
	})
	require.NoError(t, err)

	tokens, err := persister.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FIRSTNAME": "Sam", "COMPANY": "Acme"}, tokens)
}

func TestRedisPersister_UpsertOverwrites(t *testing.T) {
	persister := newTestRedisPersister(t)
	ctx := context.Background()

	require.NoError(t, persister.Upsert(ctx, []Row{{OwnerID: "u1", Key: "FIRSTNAME", Value: "Sam"}}))
	require.NoError(t, persister.Upsert(ctx, []Row{{OwnerID: "u1", Key: "FIRSTNAME", Value: "Samantha"}}))

	tokens, err := persister.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Samantha", tokens["FIRSTNAME"])
}

func TestRedisPersister_OwnersAreIsolated(t *testing.T) {
	persister := newTestRedisPersister(t)
	ctx := context.Background()

	require.NoError(t, persister.Upsert(ctx, []Row{{OwnerID: "u1", Key: "FIRSTNAME", Value: "Sam"}}))

	tokens, err := persister.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
