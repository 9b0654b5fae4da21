// Package subject asigna y registra los uuid globales (subjects) de cuentas,
// usuarios y clientes.
package subject

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// Service administra el registro de subjects.
type Service struct {
	repo repository.SubjectRepository
}

// NewService crea el servicio sobre el repositorio dado.
func NewService(repo repository.SubjectRepository) *Service {
	return &Service{repo: repo}
}

// GenerateUUID genera un uuid nuevo (v4). El tipo no altera el formato.
func (s *Service) GenerateUUID(kind repository.SubjectKind) string {
	return uuid.NewString()
}

// AddSubject registra el subject. Falla con ErrConflict si el uuid ya existe.
func (s *Service) AddSubject(ctx context.Context, id, realm string, kind repository.SubjectKind, label string) (*repository.Subject, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid subject id %q", repository.ErrInvalidInput, id)
	}
	sub := &repository.Subject{
		SubjectID:   id,
		Realm:       realm,
		Kind:        kind,
		DisplayName: label,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Add(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// FindSubject retorna el subject o ErrNotFound.
func (s *Service) FindSubject(ctx context.Context, id string) (*repository.Subject, error) {
	return s.repo.FindByID(ctx, strings.TrimSpace(id))
}

// DeleteSubject elimina el subject. Idempotente.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}
