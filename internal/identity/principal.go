package identity

// Principal son los claims transitorios de un evento de autenticación.
type Principal interface {
	Authority() string
	ProviderID() string
	Realm() string
	// PrincipalID es el id local del backend; termina siendo el accountID.
	PrincipalID() string
	Username() string
	EmailAddress() string
	Attributes() map[string]any
}

// UUIDHolder lo implementan los principals que reciben el uuid de la cuenta
// luego de persistirla.
type UUIDHolder interface {
	SetUUID(uuid string)
}

// DefaultPrincipal implementación genérica de Principal.
type DefaultPrincipal struct {
	authority   string
	provider    string
	realm       string
	principalID string
	username    string
	email       string
	uuid        string
	attributes  map[string]any
}

// NewPrincipal crea un principal para el proveedor dado.
func NewPrincipal(authority, provider, realm, principalID string) *DefaultPrincipal {
	return &DefaultPrincipal{
		authority:   authority,
		provider:    provider,
		realm:       realm,
		principalID: principalID,
		attributes:  map[string]any{},
	}
}

func (p *DefaultPrincipal) WithUsername(v string) *DefaultPrincipal {
	p.username = v
	return p
}

func (p *DefaultPrincipal) WithEmailAddress(v string) *DefaultPrincipal {
	p.email = v
	return p
}

func (p *DefaultPrincipal) WithAttributes(m map[string]any) *DefaultPrincipal {
	if m == nil {
		m = map[string]any{}
	}
	p.attributes = m
	return p
}

func (p *DefaultPrincipal) Authority() string          { return p.authority }
func (p *DefaultPrincipal) ProviderID() string         { return p.provider }
func (p *DefaultPrincipal) Realm() string              { return p.realm }
func (p *DefaultPrincipal) PrincipalID() string        { return p.principalID }
func (p *DefaultPrincipal) Username() string           { return p.username }
func (p *DefaultPrincipal) EmailAddress() string       { return p.email }
func (p *DefaultPrincipal) Attributes() map[string]any { return p.attributes }
func (p *DefaultPrincipal) UUID() string               { return p.uuid }
func (p *DefaultPrincipal) SetUUID(uuid string)        { p.uuid = uuid }
