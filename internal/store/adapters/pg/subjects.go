package pg

import (
	"context"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type subjectRepo struct{ conn *Connection }

func (r *subjectRepo) Add(ctx context.Context, s *repository.Subject) error {
	const query = `
		INSERT INTO subject (subject_id, realm, kind, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.conn.q(ctx).ExecContext(ctx, query,
		s.SubjectID, s.Realm, string(s.Kind), s.DisplayName, nowIfZero(s.CreatedAt))
	return mapError(err)
}

func (r *subjectRepo) FindByID(ctx context.Context, subjectID string) (*repository.Subject, error) {
	const query = `SELECT subject_id, realm, kind, display_name, created_at FROM subject WHERE subject_id = $1`
	var (
		s    repository.Subject
		kind string
	)
	err := r.conn.q(ctx).QueryRowContext(ctx, query, subjectID).Scan(
		&s.SubjectID, &s.Realm, &kind, &s.DisplayName, &s.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	s.Kind = repository.SubjectKind(kind)
	return &s, nil
}

func (r *subjectRepo) Delete(ctx context.Context, subjectID string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx, `DELETE FROM subject WHERE subject_id = $1`, subjectID)
	return mapError(err)
}
