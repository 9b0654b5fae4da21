package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/idbroker/internal/attributes"
	"github.com/dropDatabas3/idbroker/internal/authority"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/identity"
	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/subject"
)

var (
	// ErrInvalidToken el ID token no es válido para este proveedor.
	ErrInvalidToken = fmt.Errorf("%w: invalid id token", repository.ErrInvalidInput)
	// ErrMissingSubject el token no trae el claim de subject configurado.
	ErrMissingSubject = fmt.Errorf("%w: id token has no subject", repository.ErrInvalidInput)
)

// Provider es un proveedor OIDC vivo.
type Provider struct {
	provider.Configured[Settings]
	*identity.Service

	keyfunc jwtv5.Keyfunc
	methods []string
}

var _ authority.IdentityProvider = (*Provider)(nil)

// PrincipalFromIDToken verifica firma, issuer, audiencia y vigencia del token y
// arma el principal con sus claims.
func (p *Provider) PrincipalFromIDToken(raw string) (*identity.DefaultPrincipal, error) {
	s := p.Settings()
	tok, err := jwtv5.Parse(raw, p.keyfunc,
		jwtv5.WithValidMethods(p.methods),
		jwtv5.WithIssuer(s.Issuer),
		jwtv5.WithAudience(s.ClientID),
		jwtv5.WithLeeway(s.Leeway),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	sub := claimString(claims, s.SubjectClaim)
	if sub == "" {
		return nil, ErrMissingSubject
	}
	attrs := make(map[string]any, len(claims))
	for k, v := range claims {
		attrs[k] = v
	}
	principal := identity.NewPrincipal(AuthorityID, p.ProviderID(), p.Realm(), sub).
		WithUsername(claimString(claims, s.UsernameClaim)).
		WithAttributes(attrs)

	// el email sólo se toma si el emisor lo verificó o si se confía en él
	if email := claimString(claims, s.EmailClaim); email != "" {
		if verified, _ := claims["email_verified"].(bool); verified || s.TrustEmailAddress {
			principal.WithEmailAddress(email)
		}
	}
	return principal, nil
}

func claimString(claims jwtv5.MapClaims, name string) string {
	if name == "" {
		return ""
	}
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

func convertAccount(ctx context.Context, principal identity.Principal, userID string) (*repository.Account, error) {
	return &repository.Account{
		Username:     principal.Username(),
		EmailAddress: principal.EmailAddress(),
		Attributes:   principal.Attributes(),
	}, nil
}

type factory struct {
	stores authority.Stores
}

func (f factory) BuildProvider(ctx context.Context, cfg provider.Config[Settings]) (*Provider, error) {
	p := &Provider{Configured: provider.NewConfigured(cfg)}
	switch {
	case cfg.Settings.JWTPublicKey != "":
		key, err := parsePublicKey(cfg.Settings.JWTPublicKey)
		if err != nil {
			return nil, err
		}
		p.methods = []string{"RS256", "RS384", "RS512"}
		p.keyfunc = func(*jwtv5.Token) (any, error) { return key, nil }
	case cfg.Settings.JWTSigningKey != "":
		secret := []byte(cfg.Settings.JWTSigningKey)
		p.methods = []string{"HS256", "HS384", "HS512"}
		p.keyfunc = func(*jwtv5.Token) (any, error) { return secret, nil }
	default:
		return nil, errors.New("oidc: no verification key")
	}

	svc, err := identity.NewService(identity.ServiceConfig{
		Authority:    AuthorityID,
		ProviderID:   cfg.ProviderID,
		Realm:        cfg.Realm,
		RepositoryID: cfg.RepositoryID,
		Accounts:     f.stores.Accounts(AuthorityID),
		Converter:    identity.AccountConverterFunc(convertAccount),
		Attributes: attributes.NewProvider(attributes.Config{
			Authority:  AuthorityID,
			ProviderID: cfg.ProviderID,
			Realm:      cfg.Realm,
			Store:      f.stores.Attributes(AuthorityID, cfg.ProviderID),
		}),
		Subjects:      subject.NewService(f.stores.Subjects()),
		Tx:            f.stores.Tx(),
		Authoritative: cfg.Settings.Linkable,
	})
	if err != nil {
		return nil, err
	}
	p.Service = svc
	return p, nil
}

// NewRegistry crea el registry OIDC: varios proveedores por realm, versionado.
func NewRegistry(stores authority.Stores, opts ...provider.Option) *provider.Registry[*Provider, Settings] {
	opts = append([]provider.Option{provider.Versioned()}, opts...)
	return provider.NewRegistry[*Provider, Settings](AuthorityID, stores.ProviderConfigs(), settingsProvider{}, factory{stores: stores}, opts...)
}

// New crea la authority ya adaptada a authority.IdentityAuthority.
func New(stores authority.Stores, opts ...provider.Option) authority.IdentityAuthority {
	return authority.FromRegistry(NewRegistry(stores, opts...))
}
