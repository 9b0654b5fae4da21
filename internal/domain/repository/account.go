package repository

import (
	"context"
	"time"
)

// AccountStatus estado de una cuenta.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountLocked   AccountStatus = "locked"
)

// Account es el registro durable de la identidad local de un principal en un backend.
type Account struct {
	Authority    string
	Provider     string
	Realm        string
	RepositoryID string
	// AccountID es el id local del backend, igual al principalId que lo originó.
	AccountID string
	// UUID se asigna una sola vez (subject) y no cambia.
	UUID string
	// UserID es el dueño; sólo cambia vía link explícito.
	UserID       string
	Username     string
	EmailAddress string
	Status       AccountStatus
	Attributes   map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountRepository opera sobre las cuentas de una authority.
// Cada instancia está acotada a una authority; las claves son (repositoryID, accountID).
type AccountRepository interface {
	// FindByID retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, repositoryID, accountID string) (*Account, error)

	// FindByUUID retorna ErrNotFound si no existe.
	FindByUUID(ctx context.Context, uuid string) (*Account, error)

	// FindByUser lista las cuentas de un usuario en el repositorio.
	FindByUser(ctx context.Context, repositoryID, userID string) ([]Account, error)

	// Add inserta una cuenta nueva. Retorna ErrConflict si ya existe.
	Add(ctx context.Context, account *Account) error

	// Update reemplaza los campos de una cuenta existente. Retorna ErrNotFound si no existe.
	Update(ctx context.Context, account *Account) error

	// Delete elimina una cuenta. No falla si no existe.
	Delete(ctx context.Context, repositoryID, accountID string) error

	// DeleteAllForUser elimina todas las cuentas de un usuario.
	DeleteAllForUser(ctx context.Context, repositoryID, userID string) error
}
