// Package authority agrupa las authorities de identidad disponibles. Cada authority
// es un Registry tipado; acá se exponen detrás de una interfaz sin parámetros de
// tipo para que los callers puedan despachar por id.
package authority

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/identity"
	"github.com/dropDatabas3/idbroker/internal/provider"
)

// ErrNoSuchAuthority authority desconocida.
var ErrNoSuchAuthority = fmt.Errorf("%w: no such authority", repository.ErrNotFound)

// IdentityProvider es la vista común de los proveedores de identidad de cualquier
// authority.
type IdentityProvider interface {
	provider.Instance

	IsAuthoritative() bool
	ConvertIdentity(ctx context.Context, principal identity.Principal, userID string) (*identity.Identity, error)
	FindIdentity(ctx context.Context, userID, accountID string, fetchAttributes bool) (*identity.Identity, error)
	FindIdentityByUUID(ctx context.Context, userID, uuid string, fetchAttributes bool) (*identity.Identity, error)
	GetIdentity(ctx context.Context, userID, accountID string, fetchAttributes bool) (*identity.Identity, error)
	ListIdentities(ctx context.Context, userID string, fetchAttributes bool) ([]identity.Identity, error)
	LinkIdentity(ctx context.Context, userID, accountID string) (*identity.Identity, error)
	DeleteIdentity(ctx context.Context, userID, accountID string) error
	DeleteIdentities(ctx context.Context, userID string) error
}

// IdentityAuthority es una authority sin sus parámetros de tipo.
type IdentityAuthority interface {
	ID() string
	HasProvider(ctx context.Context, providerID string) (bool, error)
	// FindProvider retorna nil si no existe o no está disponible.
	FindProvider(ctx context.Context, providerID string) (IdentityProvider, error)
	GetProvider(ctx context.Context, providerID string) (IdentityProvider, error)
	GetProvidersByRealm(ctx context.Context, realm string) ([]IdentityProvider, error)
	ListProviders(ctx context.Context, realm string) ([]provider.Configurable, error)
	RegisterProvider(ctx context.Context, in provider.Configurable) (provider.Configurable, error)
	UnregisterProvider(ctx context.Context, providerID string) error
}

// FromRegistry adapta un Registry tipado a IdentityAuthority.
func FromRegistry[P IdentityProvider, C any](r *provider.Registry[P, C]) IdentityAuthority {
	return &registryAuthority[P, C]{r: r}
}

type registryAuthority[P IdentityProvider, C any] struct {
	r *provider.Registry[P, C]
}

func (a *registryAuthority[P, C]) ID() string { return a.r.Authority() }

func (a *registryAuthority[P, C]) HasProvider(ctx context.Context, providerID string) (bool, error) {
	return a.r.HasProvider(ctx, providerID)
}

func (a *registryAuthority[P, C]) FindProvider(ctx context.Context, providerID string) (IdentityProvider, error) {
	p, err := a.r.FindProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return nilIfZero(p), nil
}

func (a *registryAuthority[P, C]) GetProvider(ctx context.Context, providerID string) (IdentityProvider, error) {
	p, err := a.r.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *registryAuthority[P, C]) GetProvidersByRealm(ctx context.Context, realm string) ([]IdentityProvider, error) {
	list, err := a.r.GetProvidersByRealm(ctx, realm)
	if err != nil {
		return nil, err
	}
	out := make([]IdentityProvider, 0, len(list))
	for _, p := range list {
		out = append(out, p)
	}
	return out, nil
}

func (a *registryAuthority[P, C]) ListProviders(ctx context.Context, realm string) ([]provider.Configurable, error) {
	return a.r.ListProviders(ctx, realm)
}

func (a *registryAuthority[P, C]) RegisterProvider(ctx context.Context, in provider.Configurable) (provider.Configurable, error) {
	cfg, err := a.r.RegisterProvider(ctx, in)
	if err != nil {
		return provider.Configurable{}, err
	}
	return cfg.Configurable(a.r.Codec())
}

func (a *registryAuthority[P, C]) UnregisterProvider(ctx context.Context, providerID string) error {
	return a.r.UnregisterProvider(ctx, providerID)
}

// nilIfZero evita retornar una interfaz no-nil que envuelve un puntero nil.
// Los tipos de proveedor son punteros, por lo que la comparación es válida.
func nilIfZero[P IdentityProvider](p P) IdentityProvider {
	var zero P
	if any(p) == any(zero) {
		return nil
	}
	return p
}
