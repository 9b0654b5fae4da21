package repository

import (
	"context"
	"time"
)

// SubjectKind tipo de subject.
type SubjectKind string

const (
	SubjectAccount SubjectKind = "account"
	SubjectUser    SubjectKind = "user"
	SubjectClient  SubjectKind = "client"
)

// Subject es el ancla global (uuid) de una cuenta, usuario o cliente.
type Subject struct {
	SubjectID   string
	Realm       string
	Kind        SubjectKind
	DisplayName string
	CreatedAt   time.Time
}

// SubjectRepository persiste subjects.
type SubjectRepository interface {
	// Add inserta un subject. Retorna ErrConflict si el uuid ya existe.
	Add(ctx context.Context, subject *Subject) error

	// FindByID retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, subjectID string) (*Subject, error)

	// Delete elimina un subject. No falla si no existe.
	Delete(ctx context.Context, subjectID string) error
}
