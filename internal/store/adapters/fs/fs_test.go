package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/store"
)

func TestAdapterRegistered(t *testing.T) {
	a, ok := store.GetAdapter("fs")
	require.True(t, ok)
	assert.Equal(t, "fs", a.Name())
}

func TestProviderConfigsRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	conn, err := Open(root)
	require.NoError(t, err)
	repo := conn.ProviderConfigs()

	now := time.Now().UTC().Truncate(time.Second)
	cfg := &repository.ProviderConfig{
		Authority:  "oidc",
		ProviderID: "google",
		Realm:      "acme",
		Name:       "Google",
		TitleMap:   map[string]string{"es": "Google", "en": "Google"},
		Version:    3,
		Settings:   map[string]any{"issuer": "https://accounts.google.com", "linkable": true},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Upsert(ctx, cfg))
	assert.FileExists(t, filepath.Join(root, "providers", "google.yaml"))

	got, err := repo.FindByProviderID(ctx, "google")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, "https://accounts.google.com", got.Settings["issuer"])
	assert.Equal(t, true, got.Settings["linkable"])
	assert.True(t, now.Equal(got.CreatedAt))

	require.NoError(t, repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "azure", Realm: "acme"}))
	require.NoError(t, repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "gitlab", Realm: "other"}))
	require.NoError(t, repo.Upsert(ctx, &repository.ProviderConfig{Authority: "internal", ProviderID: "local", Realm: "acme"}))

	list, err := repo.FindByRealm(ctx, "oidc", "acme")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "azure", list[0].ProviderID)
	assert.Equal(t, "google", list[1].ProviderID)

	require.NoError(t, repo.Remove(ctx, "google"))
	require.NoError(t, repo.Remove(ctx, "google"))
	_, err = repo.FindByProviderID(ctx, "google")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProviderIDMustBeFileSafe(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(t.TempDir())
	require.NoError(t, err)
	repo := conn.ProviderConfigs()

	err = repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "../escape", Realm: "acme"})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = repo.FindByProviderID(ctx, "../escape")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByRealmEmptyDir(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)

	list, err := conn.ProviderConfigs().FindByRealm(context.Background(), "oidc", "acme")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	_, err := Open(f)
	assert.Error(t, err)
}

func TestUpsertRejectsRealmTakeover(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(t.TempDir())
	require.NoError(t, err)
	repo := conn.ProviderConfigs()

	require.NoError(t, repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "google", Realm: "acme"}))

	err = repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "google", Realm: "globex"})
	assert.ErrorIs(t, err, repository.ErrProviderIDTaken)

	got, err := repo.FindByProviderID(ctx, "google")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Realm)
}
