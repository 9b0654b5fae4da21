package pg

import (
	"context"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type configRepo struct{ conn *Connection }

const configColumns = `provider_id, authority, realm, name, title_map, description_map,
	repository_id, version, settings, created_at, updated_at`

func (r *configRepo) FindByProviderID(ctx context.Context, providerID string) (*repository.ProviderConfig, error) {
	row := r.conn.q(ctx).QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM provider_config WHERE provider_id = $1`, providerID)
	return scanConfig(row)
}

func (r *configRepo) FindByRealm(ctx context.Context, authority, realm string) ([]repository.ProviderConfig, error) {
	rows, err := r.conn.q(ctx).QueryContext(ctx,
		`SELECT `+configColumns+` FROM provider_config
		 WHERE authority = $1 AND realm = $2 ORDER BY provider_id`, authority, realm)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []repository.ProviderConfig{}
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *configRepo) Upsert(ctx context.Context, cfg *repository.ProviderConfig) error {
	titles, err := toJSON(cfg.TitleMap)
	if err != nil {
		return err
	}
	descriptions, err := toJSON(cfg.DescriptionMap)
	if err != nil {
		return err
	}
	settings, err := toJSON(cfg.Settings)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO provider_config (
			provider_id, authority, realm, name, title_map, description_map,
			repository_id, version, settings, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (provider_id) DO UPDATE SET
			authority = EXCLUDED.authority,
			realm = EXCLUDED.realm,
			name = EXCLUDED.name,
			title_map = EXCLUDED.title_map,
			description_map = EXCLUDED.description_map,
			repository_id = EXCLUDED.repository_id,
			version = EXCLUDED.version,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
		WHERE provider_config.realm = EXCLUDED.realm
		  AND provider_config.authority = EXCLUDED.authority
	`
	// con el WHERE del ON CONFLICT, 0 filas = el id es de otro realm
	err = mustAffect(r.conn.q(ctx).ExecContext(ctx, query,
		cfg.ProviderID, cfg.Authority, cfg.Realm, cfg.Name, titles, descriptions,
		cfg.RepositoryID, cfg.Version, settings, nowIfZero(cfg.CreatedAt), nowIfZero(cfg.UpdatedAt),
	))
	if repository.IsNotFound(err) {
		return repository.ErrProviderIDTaken
	}
	return err
}

func (r *configRepo) Remove(ctx context.Context, providerID string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx, `DELETE FROM provider_config WHERE provider_id = $1`, providerID)
	return mapError(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(s scanner) (*repository.ProviderConfig, error) {
	var (
		c                          repository.ProviderConfig
		titles, descs, settingsRaw []byte
	)
	err := s.Scan(
		&c.ProviderID, &c.Authority, &c.Realm, &c.Name, &titles, &descs,
		&c.RepositoryID, &c.Version, &settingsRaw, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if c.TitleMap, err = fromJSON[map[string]string](titles); err != nil {
		return nil, err
	}
	if c.DescriptionMap, err = fromJSON[map[string]string](descs); err != nil {
		return nil, err
	}
	if c.Settings, err = fromJSON[map[string]any](settingsRaw); err != nil {
		return nil, err
	}
	return &c, nil
}
