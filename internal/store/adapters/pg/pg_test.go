package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/store"
)

func newMock(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

var accountCols = []string{
	"authority", "repository_id", "account_id", "provider", "realm", "uuid", "user_id",
	"username", "email_address", "status", "attributes", "created_at", "updated_at",
}

func TestPostgresAdapterRegistered(t *testing.T) {
	a, ok := store.GetAdapter("postgresql")
	require.True(t, ok)
	assert.Equal(t, "postgres", a.Name())

	_, err := a.Connect(context.Background(), store.AdapterConfig{})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestAccountFindByID(t *testing.T) {
	conn, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM account").
		WithArgs("internal", "realm1", "alice").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(
			"internal", "realm1", "alice", "p1", "realm1", "uuid-1", "user-1",
			"alice", "alice@example.com", "active", []byte(`{"team":"core"}`), now, now,
		))

	a, err := conn.Accounts("internal").FindByID(context.Background(), "realm1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", a.UUID)
	assert.Equal(t, repository.AccountActive, a.Status)
	assert.Equal(t, "core", a.Attributes["team"])
}

func TestAccountFindByIDMissing(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectQuery("SELECT .* FROM account").
		WithArgs("internal", "realm1", "ghost").
		WillReturnRows(sqlmock.NewRows(accountCols))

	_, err := conn.Accounts("internal").FindByID(context.Background(), "realm1", "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountAddDuplicateIsConflict(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectExec("INSERT INTO account").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "account_pkey"})

	err := conn.Accounts("internal").Add(context.Background(), &repository.Account{
		RepositoryID: "realm1", AccountID: "alice", UUID: "uuid-1", UserID: "user-1",
		Status: repository.AccountActive,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAccountUpdateMissing(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectExec("UPDATE account SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := conn.Accounts("internal").Update(context.Background(), &repository.Account{
		RepositoryID: "realm1", AccountID: "ghost",
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTxCommit(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subject").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM credentials").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := conn.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := conn.Subjects().Add(ctx, &repository.Subject{SubjectID: "s1", Kind: repository.SubjectAccount}); err != nil {
			return err
		}
		// anidada: reutiliza la misma transacción
		return conn.WithinTx(ctx, func(ctx context.Context) error {
			return conn.Credentials("internal").DeleteByAccount(ctx, "realm1", "alice")
		})
	})
	require.NoError(t, err)
}

func TestAccountFindByIDLocksRowInsideTx(t *testing.T) {
	conn, mock := newMock(t)
	now := time.Now().UTC()

	assert.Empty(t, lockClause(context.Background()))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM account WHERE .* FOR UPDATE$`).
		WithArgs("internal", "realm1", "alice").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(
			"internal", "realm1", "alice", "p1", "realm1", "uuid-1", "user-1",
			"alice", "", "active", []byte(`{}`), now, now,
		))
	mock.ExpectCommit()

	err := conn.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.Equal(t, " FOR UPDATE", lockClause(ctx))
		a, err := conn.Accounts("internal").FindByID(ctx, "realm1", "alice")
		if err != nil {
			return err
		}
		assert.Equal(t, "user-1", a.UserID)
		return nil
	})
	require.NoError(t, err)
}

func TestWithinTxRollback(t *testing.T) {
	conn, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subject").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	err := conn.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := conn.Subjects().Add(ctx, &repository.Subject{SubjectID: "s1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestAttributesMissingIsEmpty(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectQuery("SELECT entries FROM attribute_entry").
		WithArgs("oidc", "google", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"entries"}))

	attrs, err := conn.Attributes("oidc", "google").FindAttributes(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Empty(t, attrs)
	assert.NotNil(t, attrs)
}

func TestCredentialsNullableExpiry(t *testing.T) {
	conn, mock := newMock(t)
	now := time.Now().UTC()
	cols := []string{
		"id", "authority", "provider", "realm", "repository_id", "account_id", "user_id",
		"type", "value", "status", "created_at", "updated_at", "expires_at",
	}

	mock.ExpectQuery("SELECT .* FROM credentials").
		WithArgs("internal", "realm1", "alice").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "internal", "p1", "realm1", "realm1", "alice", "user-1",
				"password", []byte("hash"), "active", now, now, nil).
			AddRow("c2", "internal", "p1", "realm1", "realm1", "alice", "user-1",
				"password", nil, "revoked", now, now, now.Add(time.Hour)))

	creds, err := conn.Credentials("internal").FindByAccount(context.Background(), "realm1", "alice")
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Nil(t, creds[0].ExpiresAt)
	require.NotNil(t, creds[1].ExpiresAt)
	assert.Equal(t, repository.CredentialsRevoked, creds[1].Status)
}

func TestConfigUpsertEncodesSettings(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectExec("INSERT INTO provider_config").
		WithArgs("p1", "internal", "realm1", "", "{}", "{}", "realm1", 2,
			`{"enableDelete":true}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := conn.ProviderConfigs().Upsert(context.Background(), &repository.ProviderConfig{
		Authority: "internal", ProviderID: "p1", Realm: "realm1", RepositoryID: "realm1",
		Version: 2, Settings: map[string]any{"enableDelete": true},
	})
	require.NoError(t, err)
}

func TestConfigUpsertOtherRealmIsTaken(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO provider_config .* ON CONFLICT .* WHERE provider_config.realm = EXCLUDED.realm`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := conn.ProviderConfigs().Upsert(context.Background(), &repository.ProviderConfig{
		Authority: "internal", ProviderID: "p1", Realm: "realm2", RepositoryID: "realm2",
	})
	assert.ErrorIs(t, err, repository.ErrProviderIDTaken)
}
