package password_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/authority/password"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/store/adapters/memory"
)

var fastHashing = map[string]any{"memory": 1024, "time": 1, "parallelism": 1, "keyLen": 16}

func register(t *testing.T, settings map[string]any) (*password.Provider, *memory.DB) {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	reg := password.NewRegistry(db)

	if settings == nil {
		settings = map[string]any{}
	}
	settings["hashing"] = fastHashing
	v := 0
	_, err := reg.RegisterProvider(ctx, provider.Configurable{
		Authority: password.AuthorityID, Provider: "local", Realm: "acme", Version: &v, Settings: settings,
	})
	require.NoError(t, err)

	p, err := reg.GetProvider(ctx, "local")
	require.NoError(t, err)
	return p, db
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	p, db := register(t, nil)

	idn, err := p.RegisterIdentity(ctx, "user-1", "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", idn.AccountID())
	assert.True(t, p.IsAuthoritative())

	principal, err := p.Passwords().Authenticate(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.EmailAddress())

	again, err := p.ConvertIdentity(ctx, principal, "user-1")
	require.NoError(t, err)
	assert.Equal(t, idn.UUID(), again.UUID())
	assert.Equal(t, idn.UUID(), principal.UUID())

	_, err = p.Passwords().Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, password.ErrBadCredentials)
	_, err = p.Passwords().Authenticate(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, password.ErrBadCredentials)

	creds, err := db.Credentials(password.AuthorityID).FindByAccount(ctx, "acme", "alice")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.NotContains(t, string(creds[0].Value), "correct horse")
}

func TestSetPasswordReplacesCredentials(t *testing.T) {
	ctx := context.Background()
	p, db := register(t, nil)
	_, err := p.RegisterIdentity(ctx, "user-1", "alice", "", "first-password")
	require.NoError(t, err)

	require.NoError(t, p.Passwords().SetPassword(ctx, "alice", "second-password"))

	ok, err := p.Passwords().VerifyPassword(ctx, "alice", "first-password")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = p.Passwords().VerifyPassword(ctx, "alice", "second-password")
	require.NoError(t, err)
	assert.True(t, ok)

	creds, err := db.Credentials(password.AuthorityID).FindByAccount(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Len(t, creds, 1)
}

func TestPolicyRejectedBeforePersisting(t *testing.T) {
	ctx := context.Background()
	p, db := register(t, map[string]any{"passwordPolicy": map[string]any{"minLength": 12, "requireDigit": true}})

	_, err := p.RegisterIdentity(ctx, "user-1", "alice", "", "short")
	require.ErrorIs(t, err, password.ErrWeakPassword)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = db.Accounts(password.AuthorityID).FindByID(ctx, "acme", "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLockedAndUnconfirmedAccounts(t *testing.T) {
	ctx := context.Background()
	p, _ := register(t, map[string]any{"requireAccountConfirmation": true})

	idn, err := p.RegisterIdentity(ctx, "user-1", "alice", "", "long enough pw")
	require.NoError(t, err)
	assert.Equal(t, repository.AccountInactive, idn.Account.Status)

	_, err = p.Passwords().Authenticate(ctx, "alice", "long enough pw")
	assert.ErrorIs(t, err, password.ErrAccountInactive)

	_, err = p.Accounts().ActivateAccount(ctx, "alice")
	require.NoError(t, err)
	_, err = p.Accounts().LockAccount(ctx, "alice")
	require.NoError(t, err)

	_, err = p.Passwords().Authenticate(ctx, "alice", "long enough pw")
	assert.ErrorIs(t, err, password.ErrAccountLocked)
}

func TestDeleteIdentityRemovesCredentials(t *testing.T) {
	ctx := context.Background()
	p, db := register(t, nil)
	_, err := p.RegisterIdentity(ctx, "user-1", "alice", "", "long enough pw")
	require.NoError(t, err)

	require.NoError(t, p.DeleteIdentity(ctx, "user-1", "alice"))

	creds, err := db.Credentials(password.AuthorityID).FindByAccount(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestDeleteDisabled(t *testing.T) {
	ctx := context.Background()
	p, _ := register(t, map[string]any{"enableDelete": false})
	_, err := p.RegisterIdentity(ctx, "user-1", "alice", "", "long enough pw")
	require.NoError(t, err)

	assert.ErrorIs(t, p.DeleteIdentity(ctx, "user-1", "alice"), password.ErrOperationDisabled)
}

func TestSingleInstancePerRealm(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	auth := password.New(db)
	v := 0

	_, err := auth.RegisterProvider(ctx, provider.Configurable{Authority: password.AuthorityID, Provider: "a", Realm: "acme", Version: &v,
		Settings: map[string]any{"hashing": fastHashing}})
	require.NoError(t, err)
	_, err = auth.RegisterProvider(ctx, provider.Configurable{Authority: password.AuthorityID, Provider: "b", Realm: "acme", Version: &v})
	assert.ErrorIs(t, err, provider.ErrSingleInstance)

	found, err := auth.FindProvider(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, found)
}

// brokenCredentials falla al escribir credenciales.
type brokenCredentials struct {
	repository.CredentialsRepository
}

func (brokenCredentials) Add(context.Context, *repository.Credentials) error {
	return errors.New("credentials store down")
}

type brokenCredentialStores struct {
	*memory.DB
}

func (s brokenCredentialStores) Credentials(authority string) repository.CredentialsRepository {
	return brokenCredentials{s.DB.Credentials(authority)}
}

func TestRegisterIdentityIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	reg := password.NewRegistry(brokenCredentialStores{db})
	v := 0
	_, err := reg.RegisterProvider(ctx, provider.Configurable{
		Authority: password.AuthorityID, Provider: "local", Realm: "acme", Version: &v,
		Settings: map[string]any{"hashing": fastHashing},
	})
	require.NoError(t, err)
	p, err := reg.GetProvider(ctx, "local")
	require.NoError(t, err)

	_, err = p.RegisterIdentity(ctx, "user-1", "alice", "alice@example.com", "correct horse")
	require.Error(t, err)

	_, err = db.Accounts(password.AuthorityID).FindByID(ctx, "acme", "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound, "no account without a password")
	list, err := db.Accounts(password.AuthorityID).FindByUser(ctx, "acme", "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
