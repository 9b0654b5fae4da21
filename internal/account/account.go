// Package account administra el estado de las cuentas de un proveedor.
//
// Lattice de estados:
//
//	ACTIVE ⇄ LOCKED      (Lock / Unlock)
//	ACTIVE, LOCKED → INACTIVE (Deactivate)
//	INACTIVE → ACTIVE    (Activate; único camino de salida)
//
// Lock o Unlock sobre una cuenta INACTIVE es error.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

var (
	// ErrInvalidTransition transición de estado no permitida.
	ErrInvalidTransition = fmt.Errorf("%w: invalid account status transition", repository.ErrConflict)
	// ErrNoSuchAccount la cuenta no existe.
	ErrNoSuchAccount = fmt.Errorf("%w: no such account", repository.ErrNotFound)
)

// Service opera sobre las cuentas de un repositorio.
type Service struct {
	repositoryID string
	accounts     repository.AccountRepository
}

// NewService crea el servicio para repositoryID.
func NewService(repositoryID string, accounts repository.AccountRepository) *Service {
	return &Service{repositoryID: repositoryID, accounts: accounts}
}

// FindAccount retorna nil, nil si no existe.
func (s *Service) FindAccount(ctx context.Context, accountID string) (*repository.Account, error) {
	a, err := s.accounts.FindByID(ctx, s.repositoryID, strings.TrimSpace(accountID))
	if repository.IsNotFound(err) {
		return nil, nil
	}
	return a, err
}

// FindAccountByUUID retorna nil, nil si no existe en este repositorio.
func (s *Service) FindAccountByUUID(ctx context.Context, uuid string) (*repository.Account, error) {
	a, err := s.accounts.FindByUUID(ctx, strings.TrimSpace(uuid))
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.RepositoryID != s.repositoryID {
		return nil, nil
	}
	return a, nil
}

// GetAccount como FindAccount pero falla con ErrNoSuchAccount.
func (s *Service) GetAccount(ctx context.Context, accountID string) (*repository.Account, error) {
	a, err := s.FindAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNoSuchAccount
	}
	return a, nil
}

// ListAccounts lista las cuentas del usuario.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]repository.Account, error) {
	return s.accounts.FindByUser(ctx, s.repositoryID, userID)
}

// UpdateAccount actualiza username, email y atributos. Identificadores, dueño y
// estado no se tocan por esta vía.
func (s *Service) UpdateAccount(ctx context.Context, accountID string, in repository.Account) (*repository.Account, error) {
	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	a.Username = in.Username
	a.EmailAddress = in.EmailAddress
	if in.Attributes != nil {
		a.Attributes = in.Attributes
	}
	a.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// LockAccount ACTIVE → LOCKED. Idempotente sobre LOCKED.
func (s *Service) LockAccount(ctx context.Context, accountID string) (*repository.Account, error) {
	return s.transition(ctx, accountID, repository.AccountLocked, repository.AccountActive, repository.AccountLocked)
}

// UnlockAccount LOCKED → ACTIVE. Idempotente sobre ACTIVE.
func (s *Service) UnlockAccount(ctx context.Context, accountID string) (*repository.Account, error) {
	return s.transition(ctx, accountID, repository.AccountActive, repository.AccountLocked, repository.AccountActive)
}

// ActivateAccount INACTIVE → ACTIVE. Sobre LOCKED es error: se sale con Unlock.
func (s *Service) ActivateAccount(ctx context.Context, accountID string) (*repository.Account, error) {
	return s.transition(ctx, accountID, repository.AccountActive, repository.AccountInactive, repository.AccountActive)
}

// DeactivateAccount ACTIVE, LOCKED → INACTIVE.
func (s *Service) DeactivateAccount(ctx context.Context, accountID string) (*repository.Account, error) {
	return s.transition(ctx, accountID, repository.AccountInactive,
		repository.AccountActive, repository.AccountLocked, repository.AccountInactive)
}

func (s *Service) transition(ctx context.Context, accountID string, to repository.AccountStatus, from ...repository.AccountStatus) (*repository.Account, error) {
	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !allowed(a.Status, from) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	if a.Status == to {
		return a, nil
	}
	prev := a.Status
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	logger.From(ctx).Debug("account status changed",
		logger.Component("account"),
		logger.AccountID(a.AccountID),
		logger.String("from", string(prev)),
		logger.String("to", string(to)),
	)
	return a, nil
}

func allowed(s repository.AccountStatus, from []repository.AccountStatus) bool {
	for _, f := range from {
		if s == f {
			return true
		}
	}
	return false
}
