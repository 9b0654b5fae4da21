package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/account"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/store/adapters/memory"
)

func newService(t *testing.T, status repository.AccountStatus) *account.Service {
	t.Helper()
	repo := memory.New().Accounts("internal")
	require.NoError(t, repo.Add(context.Background(), &repository.Account{
		RepositoryID: "acme", AccountID: "alice", UUID: "u-1", UserID: "user-1", Status: status,
	}))
	return account.NewService("acme", repo)
}

func TestLockUnlock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, repository.AccountActive)

	a, err := svc.LockAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountLocked, a.Status)

	a, err = svc.LockAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountLocked, a.Status)

	a, err = svc.UnlockAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountActive, a.Status)
}

func TestInactiveOnlyLeavesViaActivate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, repository.AccountInactive)

	_, err := svc.LockAccount(ctx, "alice")
	assert.ErrorIs(t, err, account.ErrInvalidTransition)
	_, err = svc.UnlockAccount(ctx, "alice")
	assert.ErrorIs(t, err, account.ErrInvalidTransition)

	a, err := svc.FindAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountInactive, a.Status)

	a, err = svc.ActivateAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountActive, a.Status)
}

func TestActivateLockedFails(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, repository.AccountLocked)

	_, err := svc.ActivateAccount(ctx, "alice")
	assert.ErrorIs(t, err, account.ErrInvalidTransition)
	assert.ErrorIs(t, err, repository.ErrConflict)

	a, err := svc.DeactivateAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountInactive, a.Status)
}

func TestFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, repository.AccountActive)

	a, err := svc.FindAccount(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = svc.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, account.ErrNoSuchAccount)

	a, err = svc.FindAccountByUUID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, a)

	a, err = svc.UpdateAccount(ctx, "alice", repository.Account{Username: "alice2", EmailAddress: "a@x.io", UserID: "intruder", Status: repository.AccountLocked})
	require.NoError(t, err)
	assert.Equal(t, "alice2", a.Username)
	assert.Equal(t, "user-1", a.UserID)
	assert.Equal(t, repository.AccountActive, a.Status)

	list, err := svc.ListAccounts(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
