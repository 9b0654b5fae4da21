package identity

import (
	"context"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// UserAttributes es un set de atributos con nombre (ej: "openid", "email").
type UserAttributes struct {
	Authority  string
	Provider   string
	Realm      string
	UserID     string
	Identifier string
	Attributes map[string]any
}

// Identity es el read-model de una cuenta con sus atributos. No se persiste:
// se deriva en cada lectura de la cuenta y del store de atributos.
type Identity struct {
	Authority  string
	Provider   string
	Realm      string
	UserID     string
	Account    repository.Account
	// Principal sólo está presente cuando la identidad sale de ConvertIdentity.
	Principal  Principal
	Attributes []UserAttributes
}

// AccountID id local de la cuenta.
func (i *Identity) AccountID() string { return i.Account.AccountID }

// UUID uuid global de la cuenta.
func (i *Identity) UUID() string { return i.Account.UUID }

// AccountConverter mapea los claims de un principal sobre una cuenta.
// Es la parte específica de cada authority.
type AccountConverter interface {
	ConvertAccount(ctx context.Context, principal Principal, userID string) (*repository.Account, error)
}

// AccountConverterFunc adapta una función a AccountConverter.
type AccountConverterFunc func(ctx context.Context, principal Principal, userID string) (*repository.Account, error)

func (f AccountConverterFunc) ConvertAccount(ctx context.Context, principal Principal, userID string) (*repository.Account, error) {
	return f(ctx, principal, userID)
}

// AttributeProvider deriva los sets de atributos de una cuenta.
type AttributeProvider interface {
	// ConvertPrincipalAttributes guarda los claims crudos (si hay store) y deriva los sets.
	ConvertPrincipalAttributes(ctx context.Context, principal Principal, account *repository.Account) ([]UserAttributes, error)
	// GetAccountAttributes deriva los sets a partir de lo guardado para la cuenta.
	GetAccountAttributes(ctx context.Context, account *repository.Account) ([]UserAttributes, error)
	// DeleteAccountAttributes borra lo guardado. Idempotente.
	DeleteAccountAttributes(ctx context.Context, accountID string) error
}

// SubjectAllocator asigna los uuid globales de las cuentas nuevas.
type SubjectAllocator interface {
	GenerateUUID(kind repository.SubjectKind) string
	AddSubject(ctx context.Context, uuid, realm string, kind repository.SubjectKind, label string) (*repository.Subject, error)
	DeleteSubject(ctx context.Context, uuid string) error
}
