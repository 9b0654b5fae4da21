package repository

import (
	"context"
	"fmt"
	"time"
)

// SystemRealm es el realm reservado del sistema. Sus configs no se pueden borrar.
const SystemRealm = "system"

// ErrProviderIDTaken el providerID ya pertenece a otro realm o a otra authority.
var ErrProviderIDTaken = fmt.Errorf("%w: provider id already registered", ErrConflict)

// ProviderConfig es la configuración persistida de un proveedor.
// ProviderID es único a nivel global, no por realm.
type ProviderConfig struct {
	Authority      string
	ProviderID     string
	Realm          string
	Name           string
	TitleMap       map[string]string
	DescriptionMap map[string]string
	// RepositoryID por defecto es el realm; permite compartir cuentas entre proveedores.
	RepositoryID string
	// Version crece de forma monótona desde 0.
	Version   int
	Settings  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderConfigRepository es el store de configuraciones de proveedores.
type ProviderConfigRepository interface {
	// FindByProviderID busca la config de un proveedor (cualquier authority).
	// Retorna ErrNotFound si no existe.
	FindByProviderID(ctx context.Context, providerID string) (*ProviderConfig, error)

	// FindByRealm lista las configs de una authority dentro de un realm.
	FindByRealm(ctx context.Context, authority, realm string) ([]ProviderConfig, error)

	// Upsert crea o reemplaza la config identificada por ProviderID. Si ya existe
	// bajo otro realm u otra authority no escribe y retorna ErrProviderIDTaken.
	Upsert(ctx context.Context, cfg *ProviderConfig) error

	// Remove elimina la config. No falla si no existe.
	Remove(ctx context.Context, providerID string) error
}
