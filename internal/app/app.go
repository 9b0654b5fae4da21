// Package app arma el broker a partir de la config: stores, authorities y
// proveedores importados.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idbroker/internal/authority"
	"github.com/dropDatabas3/idbroker/internal/authority/oidc"
	"github.com/dropDatabas3/idbroker/internal/authority/password"
	"github.com/dropDatabas3/idbroker/internal/bootstrap"
	"github.com/dropDatabas3/idbroker/internal/config"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/security/secretbox"
	"github.com/dropDatabas3/idbroker/internal/store"
)

// Container agrupa las dependencias vivas del proceso.
type Container struct {
	Config      *config.Config
	Stores      *store.Stores
	Authorities *authority.Set
}

// New abre los stores y construye el set de authorities. No corre el bootstrap.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	stores, err := store.Open(ctx, StoreConfig(cfg))
	if err != nil {
		return nil, err
	}

	opts := []provider.Option{
		provider.WithCacheSize(cfg.Registry.MaxSize),
		provider.WithCacheTTL(cfg.Registry.TTL),
		provider.WithLogger(logger.L()),
	}
	oidcOpts := opts
	if cfg.Security.SecretBoxKey != "" {
		box, err := newSecretBox(cfg.Security.SecretBoxKey)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		oidcOpts = append(append([]provider.Option{}, opts...), provider.WithCodec(oidc.SealedCodec(box)))
	}

	set, err := authority.NewSet(
		password.New(stores, opts...),
		oidc.New(stores, oidcOpts...),
	)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	logger.From(ctx).Info("authorities ready",
		logger.Component("app"),
		zap.Strings("authorities", set.IDs()),
	)
	return &Container{Config: cfg, Stores: stores, Authorities: set}, nil
}

// Bootstrap importa el archivo de proveedores configurado, si hay uno.
func (c *Container) Bootstrap(ctx context.Context) error {
	if c.Config.Bootstrap.File == "" {
		return nil
	}
	if _, err := bootstrap.ImportProviders(ctx, c.Authorities, c.Config.Bootstrap.File); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// Close libera los stores.
func (c *Container) Close() error {
	return c.Stores.Close()
}

func newSecretBox(key string) (*secretbox.Box, error) {
	raw, err := secretbox.ParseKey(key)
	if err != nil {
		return nil, err
	}
	return secretbox.New(raw)
}

// StoreConfig traduce la config del proceso a la del store.
func StoreConfig(cfg *config.Config) store.Config {
	return store.Config{
		Driver:           cfg.Storage.Driver,
		DSN:              cfg.Storage.DSN,
		ConfigsDriver:    cfg.Storage.Configs.Driver,
		FSRoot:           cfg.Storage.Configs.FSRoot,
		AttributesDriver: cfg.Storage.Attributes.Driver,
		RedisAddr:        cfg.Storage.Attributes.Redis.Addr,
		RedisDB:          cfg.Storage.Attributes.Redis.DB,
		RedisPassword:    cfg.Storage.Attributes.Redis.Password,
		MaxOpenConns:     cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:     cfg.Storage.Postgres.MaxIdleConns,
	}
}
