package attributes

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/identity"
)

// Config configura un Provider.
type Config struct {
	Authority  string
	ProviderID string
	Realm      string
	// Store opcional; nil = stateless.
	Store   repository.AttributeRepository
	Mappers []Mapper
}

// Provider implementa identity.AttributeProvider.
type Provider struct {
	authority  string
	providerID string
	realm      string
	store      repository.AttributeRepository
	mappers    []Mapper
}

var _ identity.AttributeProvider = (*Provider)(nil)

// NewProvider crea el provider; sin mappers usa DefaultMappers.
func NewProvider(cfg Config) *Provider {
	mappers := cfg.Mappers
	if len(mappers) == 0 {
		mappers = DefaultMappers()
	}
	return &Provider{
		authority:  cfg.Authority,
		providerID: cfg.ProviderID,
		realm:      cfg.Realm,
		store:      cfg.Store,
		mappers:    mappers,
	}
}

// Stateless indica si el provider no tiene store.
func (p *Provider) Stateless() bool { return p.store == nil }

func (p *Provider) ConvertPrincipalAttributes(ctx context.Context, principal identity.Principal, account *repository.Account) ([]identity.UserAttributes, error) {
	claims := principalClaims(principal)
	if p.store != nil {
		if err := p.store.SetAttributes(ctx, principal.PrincipalID(), claims); err != nil {
			return nil, fmt.Errorf("store attributes: %w", err)
		}
	}
	return p.derive(claims, account), nil
}

func (p *Provider) GetAccountAttributes(ctx context.Context, account *repository.Account) ([]identity.UserAttributes, error) {
	claims := account.Attributes
	if p.store != nil {
		stored, err := p.store.FindAttributes(ctx, account.AccountID)
		if err != nil {
			return nil, err
		}
		claims = stored
	}
	if claims == nil {
		claims = map[string]any{}
	}
	return p.derive(claims, account), nil
}

func (p *Provider) DeleteAccountAttributes(ctx context.Context, accountID string) error {
	if p.store == nil {
		return nil
	}
	return p.store.DeleteAttributes(ctx, accountID)
}

func (p *Provider) derive(claims map[string]any, account *repository.Account) []identity.UserAttributes {
	userID := ""
	if account != nil {
		userID = account.UserID
	}
	out := make([]identity.UserAttributes, 0, len(p.mappers))
	for _, m := range p.mappers {
		set := m.Map(claims, account)
		if set == nil {
			continue
		}
		out = append(out, identity.UserAttributes{
			Authority:  p.authority,
			Provider:   p.providerID,
			Realm:      p.realm,
			UserID:     userID,
			Identifier: m.Identifier(),
			Attributes: set,
		})
	}
	return out
}

// principalClaims copia los atributos crudos y agrega username/email si faltan.
func principalClaims(principal identity.Principal) map[string]any {
	claims := make(map[string]any, len(principal.Attributes())+2)
	for k, v := range principal.Attributes() {
		claims[k] = v
	}
	if _, ok := claims["preferred_username"]; !ok && principal.Username() != "" {
		claims["preferred_username"] = principal.Username()
	}
	if _, ok := claims["email"]; !ok && principal.EmailAddress() != "" {
		claims["email"] = principal.EmailAddress()
	}
	return claims
}
