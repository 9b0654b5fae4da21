package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type attributeRepo struct {
	conn      *Connection
	authority string
	provider  string
}

var _ repository.AttributeRepository = (*attributeRepo)(nil)

func (r *attributeRepo) SetAttributes(ctx context.Context, principalID string, entries map[string]any) error {
	raw, err := toJSON(entries)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO attribute_entry (authority, provider, principal_id, entries, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (authority, provider, principal_id) DO UPDATE SET
			entries = EXCLUDED.entries, updated_at = EXCLUDED.updated_at
	`
	_, err = r.conn.q(ctx).ExecContext(ctx, query,
		r.authority, r.provider, principalID, raw, time.Now().UTC())
	return mapError(err)
}

func (r *attributeRepo) FindAttributes(ctx context.Context, principalID string) (map[string]any, error) {
	const query = `
		SELECT entries FROM attribute_entry
		WHERE authority = $1 AND provider = $2 AND principal_id = $3
	`
	var raw []byte
	err := r.conn.q(ctx).QueryRowContext(ctx, query, r.authority, r.provider, principalID).Scan(&raw)
	if err != nil {
		if err = mapError(err); repository.IsNotFound(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	out, err := fromJSON[map[string]any](raw)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (r *attributeRepo) DeleteAttributes(ctx context.Context, principalID string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx,
		`DELETE FROM attribute_entry WHERE authority = $1 AND provider = $2 AND principal_id = $3`,
		r.authority, r.provider, principalID)
	return mapError(err)
}
