package memory

import (
	"context"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type subjectRepo struct{ db *DB }

func (r *subjectRepo) Add(ctx context.Context, s *repository.Subject) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.subjects[s.SubjectID]; ok {
		return repository.ErrConflict
	}
	r.db.subjects[s.SubjectID] = *s
	id := s.SubjectID
	record(ctx, func() { delete(r.db.subjects, id) })
	return nil
}

func (r *subjectRepo) FindByID(ctx context.Context, subjectID string) (*repository.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s, ok := r.db.subjects[subjectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *subjectRepo) Delete(ctx context.Context, subjectID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, ok := r.db.subjects[subjectID]
	if !ok {
		return nil
	}
	delete(r.db.subjects, subjectID)
	record(ctx, func() { r.db.subjects[subjectID] = prev })
	return nil
}
