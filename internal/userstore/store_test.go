package userstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err, "Failed to create user store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entry, err := store.Add(ctx, userline.UserRecord{Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz"})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID, "Expected an ID to be assigned")
	assert.False(t, entry.CreatedAt.IsZero(), "Expected CreatedAt to be set")

	_, err = store.Add(ctx, userline.UserRecord{Name: "Ervin Howell", Username: "Antonette", Email: "Shanna@melissa.tv"})
	require.NoError(t, err)

	users, err := store.FindByUsername(ctx, "Bret")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Leanne Graham", users[0].Name)
	assert.Equal(t, entry.ID, users[0].ID)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestFindByUsernameIsExactAndCaseSensitive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Seed(ctx, DefaultUsers())
	require.NoError(t, err)

	for _, query := range []string{"bret", "BRET", "Bre", "Bret ", ""} {
		users, err := store.FindByUsername(ctx, query)
		require.NoError(t, err)
		assert.Empty(t, users, "query %q", query)
		assert.NotNil(t, users)
	}
}

func TestAddReplacesExistingID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Add(ctx, userline.UserRecord{ID: 7, Name: "Old", Username: "old", Email: "old@x.com"})
	require.NoError(t, err)
	_, err = store.Add(ctx, userline.UserRecord{ID: 7, Name: "New", Username: "new", Email: "new@x.com"})
	require.NoError(t, err)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []userline.UserRecord{{ID: 7, Name: "New", Username: "new", Email: "new@x.com"}}, all)
}

func TestDuplicateUsernames(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Seed(ctx, []userline.UserRecord{
		{ID: 2, Name: "Second", Username: "twin", Email: "b@x.com"},
		{ID: 1, Name: "First", Username: "twin", Email: "a@x.com"},
	})
	require.NoError(t, err)

	users, err := store.FindByUsername(ctx, "twin")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "First", users[0].Name, "results are ordered by id")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	entry, err := store.Add(ctx, userline.UserRecord{Username: "gone"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, entry.ID))
	assert.Error(t, store.Delete(ctx, entry.ID), "Expected error deleting a missing user")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	n, err := store.Seed(ctx, DefaultUsers())
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = store.Seed(ctx, DefaultUsers())
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestDefaultUsers(t *testing.T) {
	users := DefaultUsers()
	require.Len(t, users, 10)
	assert.Equal(t, userline.UserRecord{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz"}, users[0])
	assert.Equal(t, "Moriah.Stanton", users[9].Username)
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte("users:\n  - id: 3\n    name: Ada\n    username: ada\n    email: ada@x.com\n"), 0644))
	users, err := LoadSeedFile(valid)
	require.NoError(t, err)
	assert.Equal(t, []userline.UserRecord{{ID: 3, Name: "Ada", Username: "ada", Email: "ada@x.com"}}, users)

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: "users:\n  - username: ada\n    phone: 555\n"},
		{name: "missing username", content: "users:\n  - name: Ada\n"},
		{name: "not yaml", content: "users: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadSeedFile(path)
			assert.Error(t, err)
		})
	}

	_, err = LoadSeedFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
