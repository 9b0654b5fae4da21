package memory

import (
	"context"
	"sort"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type accountRepo struct {
	db        *DB
	authority string
}

func (r *accountRepo) key(repositoryID, accountID string) accountKey {
	return accountKey{authority: r.authority, repositoryID: repositoryID, accountID: accountID}
}

func (r *accountRepo) FindByID(ctx context.Context, repositoryID, accountID string) (*repository.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.accounts[r.key(repositoryID, accountID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyAccount(a)
	return &out, nil
}

func (r *accountRepo) FindByUUID(ctx context.Context, uuid string) (*repository.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for k, a := range r.db.accounts {
		if k.authority == r.authority && a.UUID == uuid && uuid != "" {
			out := copyAccount(a)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepo) FindByUser(ctx context.Context, repositoryID, userID string) ([]repository.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []repository.Account{}
	for k, a := range r.db.accounts {
		if k.authority == r.authority && k.repositoryID == repositoryID && a.UserID == userID {
			out = append(out, copyAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r *accountRepo) Add(ctx context.Context, a *repository.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	k := r.key(a.RepositoryID, a.AccountID)
	if _, ok := r.db.accounts[k]; ok {
		return repository.ErrConflict
	}
	r.db.accounts[k] = copyAccount(*a)
	record(ctx, func() { delete(r.db.accounts, k) })
	return nil
}

func (r *accountRepo) Update(ctx context.Context, a *repository.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	k := r.key(a.RepositoryID, a.AccountID)
	prev, ok := r.db.accounts[k]
	if !ok {
		return repository.ErrNotFound
	}
	r.db.accounts[k] = copyAccount(*a)
	record(ctx, func() { r.db.accounts[k] = prev })
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, repositoryID, accountID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.deleteLocked(ctx, r.key(repositoryID, accountID))
	return nil
}

func (r *accountRepo) DeleteAllForUser(ctx context.Context, repositoryID, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, a := range r.db.accounts {
		if k.authority == r.authority && k.repositoryID == repositoryID && a.UserID == userID {
			r.deleteLocked(ctx, k)
		}
	}
	return nil
}

func (r *accountRepo) deleteLocked(ctx context.Context, k accountKey) {
	prev, ok := r.db.accounts[k]
	if !ok {
		return
	}
	delete(r.db.accounts, k)
	record(ctx, func() { r.db.accounts[k] = prev })
}
