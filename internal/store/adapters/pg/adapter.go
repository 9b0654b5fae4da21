// Package pg implementa el store sobre PostgreSQL usando database/sql con el
// driver stdlib de pgx. El schema vive en migrations/postgres.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	store "github.com/dropDatabas3/idbroker/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres: dsn is required", repository.ErrInvalidInput)
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: postgres: ping: %v", repository.ErrUnavailable, err)
	}

	return New(db), nil
}

// Connection agrupa los repositorios sobre un *sql.DB.
type Connection struct {
	db *sql.DB
}

// New envuelve un *sql.DB ya abierto. Útil en tests con sqlmock.
func New(db *sql.DB) *Connection {
	return &Connection{db: db}
}

func (c *Connection) Name() string             { return "postgres" }
func (c *Connection) DB() *sql.DB              { return c.db }
func (c *Connection) Close() error             { return c.db.Close() }
func (c *Connection) Tx() repository.TxManager { return c }

func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Connection) ProviderConfigs() repository.ProviderConfigRepository {
	return &configRepo{conn: c}
}

func (c *Connection) Subjects() repository.SubjectRepository {
	return &subjectRepo{conn: c}
}

func (c *Connection) Accounts(authority string) repository.AccountRepository {
	return &accountRepo{conn: c, authority: authority}
}

func (c *Connection) Credentials(authority string) repository.CredentialsRepository {
	return &credentialsRepo{conn: c, authority: authority}
}

func (c *Connection) Attributes(authority, providerID string) repository.AttributeRepository {
	return &attributeRepo{conn: c, authority: authority, provider: providerID}
}

var (
	_ store.AdapterConnection    = (*Connection)(nil)
	_ store.MigratableConnection = (*Connection)(nil)
)
