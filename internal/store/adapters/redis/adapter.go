// Package redis implementa el store de atributos sobre Redis. Sólo soporta
// AttributeRepository; el resto de los repositorios retorna nil.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	store "github.com/dropDatabas3/idbroker/internal/store"
)

func init() {
	store.RegisterAdapter(&redisAdapter{})
}

type redisAdapter struct{}

func (a *redisAdapter) Name() string { return "redis" }

func (a *redisAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	c := New(rdb.NewClient(&rdb.Options{
		Addr:     addr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}))

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", repository.ErrUnavailable, addr, err)
	}
	return c, nil
}

// Connection envuelve un cliente de go-redis.
type Connection struct {
	client *rdb.Client
}

// New usa un cliente ya configurado.
func New(client *rdb.Client) *Connection {
	return &Connection{client: client}
}

func (c *Connection) Name() string { return "redis" }

func (c *Connection) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Connection) Close() error { return c.client.Close() }

func (c *Connection) Attributes(authority, providerID string) repository.AttributeRepository {
	return &attributeRepo{client: c.client, authority: authority, provider: providerID}
}

func (c *Connection) ProviderConfigs() repository.ProviderConfigRepository { return nil }
func (c *Connection) Subjects() repository.SubjectRepository               { return nil }
func (c *Connection) Accounts(string) repository.AccountRepository         { return nil }
func (c *Connection) Credentials(string) repository.CredentialsRepository  { return nil }
func (c *Connection) Tx() repository.TxManager                             { return nil }

// attributeRepo guarda un documento JSON por principal.
// No participa de las transacciones del store principal.
type attributeRepo struct {
	client    *rdb.Client
	authority string
	provider  string
}

// attributeKey arma la clave attrs:{authority}:{provider}:{principal}.
func attributeKey(authority, provider, principalID string) string {
	return "attrs:" + authority + ":" + provider + ":" + principalID
}

func (r *attributeRepo) key(principalID string) string {
	return attributeKey(r.authority, r.provider, principalID)
}

func (r *attributeRepo) SetAttributes(ctx context.Context, principalID string, entries map[string]any) error {
	if entries == nil {
		entries = map[string]any{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode attributes: %v", repository.ErrInvalidInput, err)
	}
	return r.client.Set(ctx, r.key(principalID), b, 0).Err()
}

func (r *attributeRepo) FindAttributes(ctx context.Context, principalID string) (map[string]any, error) {
	b, err := r.client.Get(ctx, r.key(principalID)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode attributes %s: %w", principalID, err)
	}
	return out, nil
}

func (r *attributeRepo) DeleteAttributes(ctx context.Context, principalID string) error {
	return r.client.Del(ctx, r.key(principalID)).Err()
}

var _ store.AdapterConnection = (*Connection)(nil)
