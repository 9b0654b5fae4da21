package authority_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/authority"
	"github.com/dropDatabas3/idbroker/internal/authority/oidc"
	"github.com/dropDatabas3/idbroker/internal/authority/password"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/store/adapters/memory"
)

func newSet(t *testing.T) *authority.Set {
	t.Helper()
	db := memory.New()
	set, err := authority.NewSet(password.New(db), oidc.New(db))
	require.NoError(t, err)
	return set
}

func TestNewSetRejectsDuplicates(t *testing.T) {
	db := memory.New()
	_, err := authority.NewSet(password.New(db), password.New(db))
	assert.Error(t, err)
}

func TestSetDispatch(t *testing.T) {
	ctx := context.Background()
	set := newSet(t)
	assert.Equal(t, []string{"internal", "oidc"}, set.IDs())

	v := 0
	out, err := set.RegisterProvider(ctx, provider.Configurable{
		Authority: "oidc", Provider: "google", Realm: "acme", Version: &v,
		Settings: map[string]any{"issuer": "https://accounts.google.com", "clientId": "c", "jwtSigningKey": "k"},
	})
	require.NoError(t, err)
	assert.Equal(t, "openid profile email", out.Settings["scope"], "defaults are returned")
	assert.Equal(t, "acme", out.RepositoryID)

	_, err = set.RegisterProvider(ctx, provider.Configurable{Authority: "saml", Provider: "x", Realm: "acme"})
	assert.ErrorIs(t, err, authority.ErrNoSuchAuthority)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	p, err := set.FindIdentityProvider(ctx, "google")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "oidc", p.Authority())

	p, err = set.FindIdentityProvider(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	list, err := set.IdentityProvidersByRealm(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	a, err := set.Get("internal")
	require.NoError(t, err)
	found, err := a.FindProvider(ctx, "google")
	require.NoError(t, err)
	assert.Nil(t, found, "authorities only see their own providers")
}
