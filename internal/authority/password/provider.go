package password

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idbroker/internal/account"
	"github.com/dropDatabas3/idbroker/internal/attributes"
	"github.com/dropDatabas3/idbroker/internal/authority"
	"github.com/dropDatabas3/idbroker/internal/credentials"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/identity"
	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/subject"
)

// ErrOperationDisabled la operación está deshabilitada en los settings.
var ErrOperationDisabled = fmt.Errorf("%w: operation disabled for this provider", repository.ErrInvalidInput)

// Provider es un proveedor interno vivo.
type Provider struct {
	provider.Configured[Settings]
	*identity.Service

	accounts  *account.Service
	passwords *PasswordService
}

var _ authority.IdentityProvider = (*Provider)(nil)

// Accounts operaciones de estado de cuentas.
func (p *Provider) Accounts() *account.Service { return p.accounts }

// Passwords credenciales de contraseña.
func (p *Provider) Passwords() *PasswordService { return p.passwords }

// RegisterIdentity crea (o actualiza) la cuenta username del usuario userID y le
// asigna la contraseña. La contraseña se valida antes de persistir nada; cuenta,
// subject y credencial se escriben en una sola transacción.
func (p *Provider) RegisterIdentity(ctx context.Context, userID, username, email, plain string) (*identity.Identity, error) {
	username = strings.TrimSpace(username)
	if err := p.passwords.CheckPolicy(plain); err != nil {
		return nil, err
	}
	hash, err := p.passwords.settings.Hashing.Hash(plain)
	if err != nil {
		return nil, err
	}
	principal := identity.NewPrincipal(AuthorityID, p.ProviderID(), p.Realm(), username).
		WithUsername(username).
		WithEmailAddress(strings.TrimSpace(email))

	var idn *identity.Identity
	err = p.passwords.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if idn, err = p.ConvertIdentity(ctx, principal, userID); err != nil {
			return err
		}
		return p.passwords.storeHash(ctx, &idn.Account, hash)
	})
	if err != nil {
		return nil, err
	}
	return idn, nil
}

// UpdateAccount respeta EnableUpdate.
func (p *Provider) UpdateAccount(ctx context.Context, accountID string, in repository.Account) (*repository.Account, error) {
	if !p.Settings().EnableUpdate {
		return nil, ErrOperationDisabled
	}
	return p.accounts.UpdateAccount(ctx, accountID, in)
}

// DeleteIdentity respeta EnableDelete.
func (p *Provider) DeleteIdentity(ctx context.Context, userID, accountID string) error {
	if !p.Settings().EnableDelete {
		return ErrOperationDisabled
	}
	return p.Service.DeleteIdentity(ctx, userID, accountID)
}

// DeleteIdentities respeta EnableDelete.
func (p *Provider) DeleteIdentities(ctx context.Context, userID string) error {
	if !p.Settings().EnableDelete {
		return ErrOperationDisabled
	}
	return p.Service.DeleteIdentities(ctx, userID)
}

type factory struct {
	stores authority.Stores
}

func (f factory) BuildProvider(ctx context.Context, cfg provider.Config[Settings]) (*Provider, error) {
	accounts := f.stores.Accounts(AuthorityID)
	creds := credentials.NewService(f.stores.Credentials(AuthorityID))
	p := &Provider{
		Configured: provider.NewConfigured(cfg),
		accounts:   account.NewService(cfg.RepositoryID, accounts),
	}
	p.passwords = &PasswordService{
		authority:    AuthorityID,
		providerID:   cfg.ProviderID,
		realm:        cfg.Realm,
		repositoryID: cfg.RepositoryID,
		settings:     cfg.Settings,
		accounts:     p.accounts,
		credentials:  creds,
		tx:           f.stores.Tx(),
	}

	svc, err := identity.NewService(identity.ServiceConfig{
		Authority:    AuthorityID,
		ProviderID:   cfg.ProviderID,
		Realm:        cfg.Realm,
		RepositoryID: cfg.RepositoryID,
		Accounts:     accounts,
		Converter:    identity.AccountConverterFunc(convertAccount(cfg.Settings)),
		Attributes: attributes.NewProvider(attributes.Config{
			Authority:  AuthorityID,
			ProviderID: cfg.ProviderID,
			Realm:      cfg.Realm,
		}),
		Subjects:      subject.NewService(f.stores.Subjects()),
		Tx:            f.stores.Tx(),
		Authoritative: true,
		DeleteHook: func(ctx context.Context, a *repository.Account) error {
			return creds.DeleteCredentialsByAccount(ctx, a.RepositoryID, a.AccountID)
		},
	})
	if err != nil {
		return nil, err
	}
	p.Service = svc
	return p, nil
}

// convertAccount la cuenta interna es el principal tal cual: accountID = username.
func convertAccount(s Settings) func(ctx context.Context, principal identity.Principal, userID string) (*repository.Account, error) {
	return func(ctx context.Context, principal identity.Principal, userID string) (*repository.Account, error) {
		a := &repository.Account{
			Username:     principal.Username(),
			EmailAddress: principal.EmailAddress(),
			Attributes:   principal.Attributes(),
		}
		if a.Username == "" {
			a.Username = principal.PrincipalID()
		}
		if s.RequireAccountConfirmation {
			a.Status = repository.AccountInactive
		}
		return a, nil
	}
}

// NewRegistry crea el registry de la authority interna: un proveedor por realm,
// con control de versión.
func NewRegistry(stores authority.Stores, opts ...provider.Option) *provider.Registry[*Provider, Settings] {
	opts = append([]provider.Option{provider.SingleInstance(), provider.Versioned()}, opts...)
	return provider.NewRegistry[*Provider, Settings](AuthorityID, stores.ProviderConfigs(), settingsProvider{}, factory{stores: stores}, opts...)
}

// New crea la authority ya adaptada a authority.IdentityAuthority.
func New(stores authority.Stores, opts ...provider.Option) authority.IdentityAuthority {
	return authority.FromRegistry(NewRegistry(stores, opts...))
}
