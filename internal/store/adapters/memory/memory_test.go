package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/store"
)

func TestAdapterRegistered(t *testing.T) {
	a, ok := store.GetAdapter("memory")
	require.True(t, ok)
	assert.Equal(t, "memory", a.Name())
}

func TestWithinTxRollback(t *testing.T) {
	ctx := context.Background()
	db := New()
	accounts := db.Accounts("internal")
	subjects := db.Subjects()

	require.NoError(t, accounts.Add(ctx, &repository.Account{RepositoryID: "r1", AccountID: "keep", UserID: "u1"}))

	boom := errors.New("boom")
	err := db.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, subjects.Add(ctx, &repository.Subject{SubjectID: "s1"}))
		require.NoError(t, accounts.Add(ctx, &repository.Account{RepositoryID: "r1", AccountID: "a1", UserID: "u1"}))
		require.NoError(t, accounts.Update(ctx, &repository.Account{RepositoryID: "r1", AccountID: "keep", UserID: "u2"}))
		require.NoError(t, accounts.Delete(ctx, "r1", "keep"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = subjects.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = accounts.FindByID(ctx, "r1", "a1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	kept, err := accounts.FindByID(ctx, "r1", "keep")
	require.NoError(t, err)
	assert.Equal(t, "u1", kept.UserID)
}

func TestWithinTxNestedReusesJournal(t *testing.T) {
	ctx := context.Background()
	db := New()
	subjects := db.Subjects()

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if err := db.WithinTx(ctx, func(ctx context.Context) error {
			return subjects.Add(ctx, &repository.Subject{SubjectID: "inner"})
		}); err != nil {
			return err
		}
		return errors.New("outer failed")
	})
	require.Error(t, err)

	_, err = subjects.FindByID(ctx, "inner")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountsScopedByAuthority(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.Accounts("internal").Add(ctx, &repository.Account{RepositoryID: "r", AccountID: "a", UUID: "x"}))

	_, err := db.Accounts("oidc").FindByID(ctx, "r", "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = db.Accounts("oidc").FindByUUID(ctx, "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = db.Accounts("internal").Add(ctx, &repository.Account{RepositoryID: "r", AccountID: "a"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCredentialsCopiesValue(t *testing.T) {
	ctx := context.Background()
	repo := New().Credentials("internal")
	require.NoError(t, repo.Add(ctx, &repository.Credentials{ID: "c1", AccountID: "a", Value: []byte("hash")}))

	c, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	c.Erase()

	again, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), again.Value)
}

func TestAttributesEmptyWhenMissing(t *testing.T) {
	ctx := context.Background()
	repo := New().Attributes("oidc", "p1")

	m, err := repo.FindAttributes(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)

	require.NoError(t, repo.SetAttributes(ctx, "a", map[string]any{"k": "v"}))
	require.NoError(t, repo.DeleteAttributes(ctx, "a"))
	require.NoError(t, repo.DeleteAttributes(ctx, "a"))
}

func TestConfigUpsertKeepsRealmOwnership(t *testing.T) {
	ctx := context.Background()
	repo := New().ProviderConfigs()

	require.NoError(t, repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "p1", Realm: "r1"}))
	require.NoError(t, repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "p1", Realm: "r1", Version: 1}))

	err := repo.Upsert(ctx, &repository.ProviderConfig{Authority: "oidc", ProviderID: "p1", Realm: "r2", Version: 2})
	assert.ErrorIs(t, err, repository.ErrProviderIDTaken)
	err = repo.Upsert(ctx, &repository.ProviderConfig{Authority: "internal", ProviderID: "p1", Realm: "r1", Version: 2})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := repo.FindByProviderID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.Realm)
	assert.Equal(t, 1, got.Version)
}
