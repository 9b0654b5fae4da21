package attributes

import (
	"strings"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// Mapper deriva un set de atributos a partir de los claims y la cuenta.
// Retorna nil si el set no aplica (ej: faltan todos sus claims).
type Mapper interface {
	Identifier() string
	Map(claims map[string]any, account *repository.Account) map[string]any
}

// Claves de origen que no salen de los claims sino de la cuenta.
const (
	SourceAccountID = "$account.id"
	SourceUUID      = "$account.uuid"
	SourceUsername  = "$account.username"
	SourceEmail     = "$account.email"
	SourceUserID    = "$account.userId"
)

// ClaimMapper copia claims a un set. Mapping es atributo → claves de origen;
// gana la primera clave con valor.
type ClaimMapper struct {
	ID      string
	Mapping map[string][]string
}

func (m ClaimMapper) Identifier() string { return m.ID }

func (m ClaimMapper) Map(claims map[string]any, account *repository.Account) map[string]any {
	out := map[string]any{}
	for attr, sources := range m.Mapping {
		for _, src := range sources {
			if v, ok := lookup(src, claims, account); ok {
				out[attr] = v
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func lookup(src string, claims map[string]any, account *repository.Account) (any, bool) {
	if strings.HasPrefix(src, "$account.") {
		if account == nil {
			return nil, false
		}
		var v string
		switch src {
		case SourceAccountID:
			v = account.AccountID
		case SourceUUID:
			v = account.UUID
		case SourceUsername:
			v = account.Username
		case SourceEmail:
			v = account.EmailAddress
		case SourceUserID:
			v = account.UserID
		}
		return v, v != ""
	}
	v, ok := claims[src]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return nil, false
	}
	return v, true
}

// Sets estándar.
var (
	BasicProfile = ClaimMapper{ID: "basicprofile", Mapping: map[string][]string{
		"name":     {"name", SourceUsername},
		"surname":  {"family_name", "surname"},
		"username": {SourceUsername, "preferred_username"},
		"email":    {SourceEmail, "email"},
	}}
	OpenID = ClaimMapper{ID: "openid", Mapping: map[string][]string{
		"sub":                {SourceUUID},
		"preferred_username": {"preferred_username", SourceUsername},
		"name":               {"name"},
		"given_name":         {"given_name"},
		"family_name":        {"family_name"},
		"locale":             {"locale"},
		"zoneinfo":           {"zoneinfo"},
		"picture":            {"picture"},
	}}
	Email = ClaimMapper{ID: "email", Mapping: map[string][]string{
		"email":          {SourceEmail, "email"},
		"email_verified": {"email_verified"},
	}}
	AccountSet = ClaimMapper{ID: "account", Mapping: map[string][]string{
		"accountId": {SourceAccountID},
		"uuid":      {SourceUUID},
		"userId":    {SourceUserID},
		"username":  {SourceUsername},
	}}
)

// DefaultMappers retorna los sets estándar en orden estable.
func DefaultMappers() []Mapper {
	return []Mapper{BasicProfile, OpenID, Email, AccountSet}
}
