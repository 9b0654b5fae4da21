package memory

import (
	"context"
	"sort"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type credentialsRepo struct {
	db        *DB
	authority string
}

func (r *credentialsRepo) FindByID(ctx context.Context, id string) (*repository.Credentials, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.credentials[id]
	if !ok || c.Authority != r.authority {
		return nil, repository.ErrNotFound
	}
	out := copyCredentials(c)
	return &out, nil
}

func (r *credentialsRepo) FindByAccount(ctx context.Context, repositoryID, accountID string) ([]repository.Credentials, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []repository.Credentials{}
	for _, c := range r.db.credentials {
		if r.matches(c, repositoryID, accountID) {
			out = append(out, copyCredentials(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *credentialsRepo) Add(ctx context.Context, c *repository.Credentials) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.credentials[c.ID]; ok {
		return repository.ErrConflict
	}
	stored := copyCredentials(*c)
	stored.Authority = r.authority
	r.db.credentials[c.ID] = stored
	id := c.ID
	record(ctx, func() { delete(r.db.credentials, id) })
	return nil
}

func (r *credentialsRepo) Update(ctx context.Context, c *repository.Credentials) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, ok := r.db.credentials[c.ID]
	if !ok || prev.Authority != r.authority {
		return repository.ErrNotFound
	}
	stored := copyCredentials(*c)
	stored.Authority = r.authority
	r.db.credentials[c.ID] = stored
	id := c.ID
	record(ctx, func() { r.db.credentials[id] = prev })
	return nil
}

func (r *credentialsRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.deleteLocked(ctx, id)
	return nil
}

func (r *credentialsRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range ids {
		r.deleteLocked(ctx, id)
	}
	return nil
}

func (r *credentialsRepo) DeleteByAccount(ctx context.Context, repositoryID, accountID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, c := range r.db.credentials {
		if r.matches(c, repositoryID, accountID) {
			r.deleteLocked(ctx, id)
		}
	}
	return nil
}

func (r *credentialsRepo) matches(c repository.Credentials, repositoryID, accountID string) bool {
	return c.Authority == r.authority && c.RepositoryID == repositoryID && c.AccountID == accountID
}

func (r *credentialsRepo) deleteLocked(ctx context.Context, id string) {
	prev, ok := r.db.credentials[id]
	if !ok || prev.Authority != r.authority {
		return
	}
	delete(r.db.credentials, id)
	record(ctx, func() { r.db.credentials[id] = prev })
}
