package memory

import (
	"context"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type attributeRepo struct {
	db        *DB
	authority string
	provider  string
}

var _ repository.AttributeRepository = (*attributeRepo)(nil)

func (r *attributeRepo) key(principalID string) attrKey {
	return attrKey{authority: r.authority, provider: r.provider, principalID: principalID}
}

func (r *attributeRepo) SetAttributes(ctx context.Context, principalID string, entries map[string]any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	k := r.key(principalID)
	prev, existed := r.db.attributes[k]
	r.db.attributes[k] = copyMap(entries)
	record(ctx, func() {
		if existed {
			r.db.attributes[k] = prev
		} else {
			delete(r.db.attributes, k)
		}
	})
	return nil
}

func (r *attributeRepo) FindAttributes(ctx context.Context, principalID string) (map[string]any, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	m, ok := r.db.attributes[r.key(principalID)]
	if !ok {
		return map[string]any{}, nil
	}
	return copyMap(m), nil
}

func (r *attributeRepo) DeleteAttributes(ctx context.Context, principalID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	k := r.key(principalID)
	prev, ok := r.db.attributes[k]
	if !ok {
		return nil
	}
	delete(r.db.attributes, k)
	record(ctx, func() { r.db.attributes[k] = prev })
	return nil
}
