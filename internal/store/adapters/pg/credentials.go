package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type credentialsRepo struct {
	conn      *Connection
	authority string
}

const credentialsColumns = `id, authority, provider, realm, repository_id, account_id, user_id,
	type, value, status, created_at, updated_at, expires_at`

func (r *credentialsRepo) FindByID(ctx context.Context, id string) (*repository.Credentials, error) {
	row := r.conn.q(ctx).QueryRowContext(ctx,
		`SELECT `+credentialsColumns+` FROM credentials WHERE id = $1 AND authority = $2`,
		id, r.authority)
	return scanCredentials(row)
}

func (r *credentialsRepo) FindByAccount(ctx context.Context, repositoryID, accountID string) ([]repository.Credentials, error) {
	rows, err := r.conn.q(ctx).QueryContext(ctx,
		`SELECT `+credentialsColumns+` FROM credentials
		 WHERE authority = $1 AND repository_id = $2 AND account_id = $3
		 ORDER BY id`,
		r.authority, repositoryID, accountID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []repository.Credentials{}
	for rows.Next() {
		c, err := scanCredentials(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *credentialsRepo) Add(ctx context.Context, c *repository.Credentials) error {
	const query = `
		INSERT INTO credentials (
			id, authority, provider, realm, repository_id, account_id, user_id,
			type, value, status, created_at, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.conn.q(ctx).ExecContext(ctx, query,
		c.ID, r.authority, c.Provider, c.Realm, c.RepositoryID, c.AccountID, c.UserID,
		c.Type, c.Value, string(c.Status),
		nowIfZero(c.CreatedAt), nowIfZero(c.UpdatedAt), nullTime(c.ExpiresAt),
	)
	return mapError(err)
}

func (r *credentialsRepo) Update(ctx context.Context, c *repository.Credentials) error {
	const query = `
		UPDATE credentials SET
			provider = $3, realm = $4, repository_id = $5, account_id = $6, user_id = $7,
			type = $8, value = $9, status = $10, updated_at = $11, expires_at = $12
		WHERE id = $1 AND authority = $2
	`
	return mustAffect(r.conn.q(ctx).ExecContext(ctx, query,
		c.ID, r.authority,
		c.Provider, c.Realm, c.RepositoryID, c.AccountID, c.UserID,
		c.Type, c.Value, string(c.Status), nowIfZero(c.UpdatedAt), nullTime(c.ExpiresAt),
	))
}

func (r *credentialsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx,
		`DELETE FROM credentials WHERE id = $1 AND authority = $2`, id, r.authority)
	return mapError(err)
}

func (r *credentialsRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if err := r.Delete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *credentialsRepo) DeleteByAccount(ctx context.Context, repositoryID, accountID string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx,
		`DELETE FROM credentials WHERE authority = $1 AND repository_id = $2 AND account_id = $3`,
		r.authority, repositoryID, accountID)
	return mapError(err)
}

func scanCredentials(s scanner) (*repository.Credentials, error) {
	var (
		c       repository.Credentials
		status  string
		expires sql.NullTime
	)
	err := s.Scan(
		&c.ID, &c.Authority, &c.Provider, &c.Realm, &c.RepositoryID, &c.AccountID, &c.UserID,
		&c.Type, &c.Value, &status, &c.CreatedAt, &c.UpdatedAt, &expires,
	)
	if err != nil {
		return nil, mapError(err)
	}
	c.Status = repository.CredentialsStatus(status)
	if expires.Valid {
		t := expires.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
