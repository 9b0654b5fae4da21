// Package credentials administra el ciclo de vida de las credenciales de una cuenta.
// ACTIVE ⇄ INACTIVE con Activate/Deactivate; REVOKED es terminal. Las lecturas
// devuelven copias con el secreto borrado.
package credentials

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropDatabas3/idbroker/internal/audit"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

var (
	// ErrRevoked la credencial está revocada.
	ErrRevoked = fmt.Errorf("%w: credentials revoked", repository.ErrConflict)
	// ErrNoSuchCredentials la credencial no existe.
	ErrNoSuchCredentials = fmt.Errorf("%w: no such credentials", repository.ErrNotFound)
)

// Service opera sobre las credenciales de una authority.
type Service struct {
	repo repository.CredentialsRepository
	now  func() time.Time
}

// NewService crea el servicio.
func NewService(repo repository.CredentialsRepository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// NewID genera un id de credencial (ULID).
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// AddCredentials persiste c como ACTIVE con un id nuevo y retorna una copia borrada.
func (s *Service) AddCredentials(ctx context.Context, c repository.Credentials) (*repository.Credentials, error) {
	if strings.TrimSpace(c.AccountID) == "" || strings.TrimSpace(c.Type) == "" {
		return nil, fmt.Errorf("%w: account id and type are required", repository.ErrInvalidInput)
	}
	now := s.now()
	c.ID = NewID()
	c.Status = repository.CredentialsActive
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Add(ctx, &c); err != nil {
		return nil, err
	}
	// el secreto es del caller: se devuelve una copia sin tocarlo
	out := c
	out.Value = nil
	return &out, nil
}

// GetCredentials retorna la credencial sin secreto o ErrNoSuchCredentials.
func (s *Service) GetCredentials(ctx context.Context, id string) (*repository.Credentials, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return erased(c), nil
}

// FindCredentialsByAccount lista las credenciales de la cuenta, sin secreto.
func (s *Service) FindCredentialsByAccount(ctx context.Context, repositoryID, accountID string) ([]repository.Credentials, error) {
	list, err := s.repo.FindByAccount(ctx, repositoryID, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Credentials, 0, len(list))
	for i := range list {
		out = append(out, *erased(&list[i]))
	}
	return out, nil
}

// ActivateCredentials INACTIVE → ACTIVE.
func (s *Service) ActivateCredentials(ctx context.Context, id string) (*repository.Credentials, error) {
	return s.setStatus(ctx, id, repository.CredentialsActive)
}

// DeactivateCredentials ACTIVE → INACTIVE.
func (s *Service) DeactivateCredentials(ctx context.Context, id string) (*repository.Credentials, error) {
	return s.setStatus(ctx, id, repository.CredentialsInactive)
}

// RevokeCredentials pasa a REVOKED. Idempotente.
func (s *Service) RevokeCredentials(ctx context.Context, id string) (*repository.Credentials, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != repository.CredentialsRevoked {
		c.Status = repository.CredentialsRevoked
		c.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, c); err != nil {
			return nil, err
		}
		audit.Log(ctx, audit.CredentialsRevoked, map[string]any{
			"credentials_id": c.ID,
			"authority":      c.Authority,
			"provider_id":    c.Provider,
			"account_id":     c.AccountID,
		})
	}
	return erased(c), nil
}

// DeleteCredentials elimina por id. Idempotente.
func (s *Service) DeleteCredentials(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// DeleteCredentialsByIDs elimina un conjunto.
func (s *Service) DeleteCredentialsByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.repo.DeleteByIDs(ctx, ids)
}

// DeleteCredentialsByAccount elimina todas las credenciales de la cuenta.
func (s *Service) DeleteCredentialsByAccount(ctx context.Context, repositoryID, accountID string) error {
	return s.repo.DeleteByAccount(ctx, repositoryID, accountID)
}

func (s *Service) setStatus(ctx context.Context, id string, to repository.CredentialsStatus) (*repository.Credentials, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == repository.CredentialsRevoked {
		return nil, ErrRevoked
	}
	if c.Status != to {
		c.Status = to
		c.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, c); err != nil {
			return nil, err
		}
	}
	return erased(c), nil
}

func (s *Service) get(ctx context.Context, id string) (*repository.Credentials, error) {
	c, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if repository.IsNotFound(err) {
		return nil, ErrNoSuchCredentials
	}
	return c, err
}

// erased copia c sin el secreto y pone en cero el secreto del registro leído.
func erased(c *repository.Credentials) *repository.Credentials {
	out := *c
	out.Value = nil
	c.Erase()
	return &out
}

// SecretFor retorna la credencial ACTIVE y vigente del tipo dado con el secreto incluido.
// El caller debe llamar Erase al terminar.
func (s *Service) SecretFor(ctx context.Context, repositoryID, accountID, typ string) (*repository.Credentials, error) {
	list, err := s.repo.FindByAccount(ctx, repositoryID, accountID)
	if err != nil {
		return nil, err
	}
	var found *repository.Credentials
	for i := range list {
		c := &list[i]
		if c.Type == typ && c.Status == repository.CredentialsActive && found == nil && !s.expired(c) {
			found = c
			continue
		}
		c.Erase()
	}
	if found == nil {
		return nil, ErrNoSuchCredentials
	}
	return found, nil
}

func (s *Service) expired(c *repository.Credentials) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(s.now())
}
