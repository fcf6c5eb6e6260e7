package tokens

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLitePersister(t *testing.T) *SQLitePersister {
	t.Helper()
	persister, err := NewSQLitePersister(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { persister.Close() })
	return persister
}

func TestSQLitePersister_UpsertAndLoad(t *testing.T) {
	persister := newTestSQLitePersister(t)
	ctx := context.Background()

	err := persister.Upsert(ctx, []Row{
		{OwnerID: "u1", Key: "FIRSTNAME", Value: "Sam", Category: "profile"},
		{OwnerID: "u1", Key: "COMPANY", Value: "Acme", Category: "profile"},
		{OwnerID: "u2", Key: "FIRSTNAME", Value: "Alex", Category: "profile"},
	})
	require.NoError(t, err)

	tokens, err := persister.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FIRSTNAME": "Sam", "COMPANY": "Acme"}, tokens)

	tokens, err = persister.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FIRSTNAME": "Alex"}, tokens)
}

func TestSQLitePersister_UpsertOverwrites(t *testing.T) {
	persister := newTestSQLitePersister(t)
	ctx := context.Background()

	require.NoError(t, persister.Upsert(ctx, []Row{
		{OwnerID: "u1", Key: "FIRSTNAME", Value: "Sam", Category: "profile"},
	}))
	require.NoError(t, persister.Upsert(ctx, []Row{
		{OwnerID: "u1", Key: "FIRSTNAME", Value: "Samantha", Category: "profile"},
	}))

	tokens, err := persister.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Samantha", tokens["FIRSTNAME"])
}

func TestSQLitePersister_LoadUnknownOwnerIsEmpty(t *testing.T) {
	persister := newTestSQLitePersister(t)

	tokens, err := persister.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestSQLitePersister_EmptyUpsertIsNoop(t *testing.T) {
	persister := newTestSQLitePersister(t)
	assert.NoError(t, persister.Upsert(context.Background(), nil))
}
