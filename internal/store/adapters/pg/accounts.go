package pg

import (
	"context"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

type accountRepo struct {
	conn      *Connection
	authority string
}

const accountColumns = `authority, repository_id, account_id, provider, realm, uuid, user_id,
	username, email_address, status, attributes, created_at, updated_at`

func (r *accountRepo) FindByID(ctx context.Context, repositoryID, accountID string) (*repository.Account, error) {
	row := r.conn.q(ctx).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account
		 WHERE authority = $1 AND repository_id = $2 AND account_id = $3`+lockClause(ctx),
		r.authority, repositoryID, accountID)
	return scanAccount(row)
}

func (r *accountRepo) FindByUUID(ctx context.Context, uuid string) (*repository.Account, error) {
	if uuid == "" {
		return nil, repository.ErrNotFound
	}
	row := r.conn.q(ctx).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE authority = $1 AND uuid = $2`,
		r.authority, uuid)
	return scanAccount(row)
}

func (r *accountRepo) FindByUser(ctx context.Context, repositoryID, userID string) ([]repository.Account, error) {
	rows, err := r.conn.q(ctx).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM account
		 WHERE authority = $1 AND repository_id = $2 AND user_id = $3
		 ORDER BY account_id`,
		r.authority, repositoryID, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []repository.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *accountRepo) Add(ctx context.Context, a *repository.Account) error {
	attrs, err := toJSON(a.Attributes)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO account (
			authority, repository_id, account_id, provider, realm, uuid, user_id,
			username, email_address, status, attributes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.conn.q(ctx).ExecContext(ctx, query,
		r.authority, a.RepositoryID, a.AccountID, a.Provider, a.Realm, a.UUID, a.UserID,
		a.Username, a.EmailAddress, string(a.Status), attrs,
		nowIfZero(a.CreatedAt), nowIfZero(a.UpdatedAt),
	)
	return mapError(err)
}

func (r *accountRepo) Update(ctx context.Context, a *repository.Account) error {
	attrs, err := toJSON(a.Attributes)
	if err != nil {
		return err
	}
	const query = `
		UPDATE account SET
			provider = $4, realm = $5, uuid = $6, user_id = $7, username = $8,
			email_address = $9, status = $10, attributes = $11, updated_at = $12
		WHERE authority = $1 AND repository_id = $2 AND account_id = $3
	`
	return mustAffect(r.conn.q(ctx).ExecContext(ctx, query,
		r.authority, a.RepositoryID, a.AccountID,
		a.Provider, a.Realm, a.UUID, a.UserID, a.Username,
		a.EmailAddress, string(a.Status), attrs, nowIfZero(a.UpdatedAt),
	))
}

func (r *accountRepo) Delete(ctx context.Context, repositoryID, accountID string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx,
		`DELETE FROM account WHERE authority = $1 AND repository_id = $2 AND account_id = $3`,
		r.authority, repositoryID, accountID)
	return mapError(err)
}

func (r *accountRepo) DeleteAllForUser(ctx context.Context, repositoryID, userID string) error {
	_, err := r.conn.q(ctx).ExecContext(ctx,
		`DELETE FROM account WHERE authority = $1 AND repository_id = $2 AND user_id = $3`,
		r.authority, repositoryID, userID)
	return mapError(err)
}

func scanAccount(s scanner) (*repository.Account, error) {
	var (
		a      repository.Account
		status string
		attrs  []byte
	)
	err := s.Scan(
		&a.Authority, &a.RepositoryID, &a.AccountID, &a.Provider, &a.Realm, &a.UUID, &a.UserID,
		&a.Username, &a.EmailAddress, &status, &attrs, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	a.Status = repository.AccountStatus(status)
	if a.Attributes, err = fromJSON[map[string]any](attrs); err != nil {
		return nil, err
	}
	return &a, nil
}
