package repository

import (
	"context"
	"time"
)

// CredentialsStatus estado de una credencial. REVOKED es terminal.
type CredentialsStatus string

const (
	CredentialsActive   CredentialsStatus = "active"
	CredentialsInactive CredentialsStatus = "inactive"
	CredentialsRevoked  CredentialsStatus = "revoked"
)

// Credentials es un secreto asociado a una cuenta.
type Credentials struct {
	ID           string
	Authority    string
	Provider     string
	Realm        string
	RepositoryID string
	AccountID    string
	UserID       string
	Type         string // "password", ...
	// Value es el secreto (ej: hash). Los caminos de lectura lo borran.
	Value     []byte
	Status    CredentialsStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// Erase pone en cero el valor del secreto de esta copia.
func (c *Credentials) Erase() {
	for i := range c.Value {
		c.Value[i] = 0
	}
	c.Value = nil
}

// CredentialsRepository persiste credenciales de una authority.
type CredentialsRepository interface {
	// FindByID retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, id string) (*Credentials, error)

	// FindByAccount lista las credenciales de una cuenta.
	FindByAccount(ctx context.Context, repositoryID, accountID string) ([]Credentials, error)

	// Add inserta una credencial nueva.
	Add(ctx context.Context, c *Credentials) error

	// Update reemplaza una credencial existente. Retorna ErrNotFound si no existe.
	Update(ctx context.Context, c *Credentials) error

	// Delete elimina por id. No falla si no existe.
	Delete(ctx context.Context, id string) error

	// DeleteByIDs elimina un conjunto de credenciales.
	DeleteByIDs(ctx context.Context, ids []string) error

	// DeleteByAccount elimina todas las credenciales de una cuenta.
	DeleteByAccount(ctx context.Context, repositoryID, accountID string) error
}
