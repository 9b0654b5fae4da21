package memory

import (
	"context"
	"sort"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type configRepo struct{ db *DB }

func (r *configRepo) FindByProviderID(ctx context.Context, providerID string) (*repository.ProviderConfig, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.configs[providerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyConfig(c)
	return &out, nil
}

func (r *configRepo) FindByRealm(ctx context.Context, authority, realm string) ([]repository.ProviderConfig, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []repository.ProviderConfig{}
	for _, c := range r.db.configs {
		if c.Authority == authority && c.Realm == realm {
			out = append(out, copyConfig(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out, nil
}

func (r *configRepo) Upsert(ctx context.Context, cfg *repository.ProviderConfig) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, existed := r.db.configs[cfg.ProviderID]
	if existed && (prev.Realm != cfg.Realm || prev.Authority != cfg.Authority) {
		return repository.ErrProviderIDTaken
	}
	r.db.configs[cfg.ProviderID] = copyConfig(*cfg)
	id := cfg.ProviderID
	record(ctx, func() {
		if existed {
			r.db.configs[id] = prev
		} else {
			delete(r.db.configs, id)
		}
	})
	return nil
}

func (r *configRepo) Remove(ctx context.Context, providerID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev, existed := r.db.configs[providerID]
	if !existed {
		return nil
	}
	delete(r.db.configs, providerID)
	record(ctx, func() { r.db.configs[providerID] = prev })
	return nil
}
