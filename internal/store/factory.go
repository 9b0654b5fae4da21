package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

// Config selecciona los adapters de cada grupo de repositorios.
type Config struct {
	// Driver del store principal (cuentas, subjects, credenciales, configs).
	Driver string
	DSN    string

	// ConfigsDriver opcional: "fs" para guardar las configs de proveedores en YAML.
	ConfigsDriver string
	FSRoot        string

	// AttributesDriver opcional: "redis" para el store de atributos.
	AttributesDriver string
	RedisAddr        string
	RedisDB          int
	RedisPassword    string

	MaxOpenConns int
	MaxIdleConns int
}

// Stores es el bundle de repositorios abierto por Open.
type Stores struct {
	Main       AdapterConnection
	configs    AdapterConnection
	attributes AdapterConnection
}

// Open abre el store principal y, si están configurados, los stores de configs y
// atributos separados.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	base := AdapterConfig{
		Name:          cfg.Driver,
		DSN:           cfg.DSN,
		FSRoot:        cfg.FSRoot,
		RedisAddr:     cfg.RedisAddr,
		RedisDB:       cfg.RedisDB,
		RedisPassword: cfg.RedisPassword,
		MaxOpenConns:  cfg.MaxOpenConns,
		MaxIdleConns:  cfg.MaxIdleConns,
	}
	main, err := OpenAdapter(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", normalizeName(cfg.Driver), err)
	}
	if main.Subjects() == nil || main.Tx() == nil {
		_ = main.Close()
		return nil, fmt.Errorf("store: %s cannot be the main store", main.Name())
	}
	s := &Stores{Main: main, configs: main, attributes: main}

	if cfg.ConfigsDriver != "" && normalizeName(cfg.ConfigsDriver) != main.Name() {
		c := base
		c.Name = cfg.ConfigsDriver
		if s.configs, err = OpenAdapter(ctx, c); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("store: open configs %s: %w", cfg.ConfigsDriver, err)
		}
	}
	if cfg.AttributesDriver != "" && normalizeName(cfg.AttributesDriver) != main.Name() {
		c := base
		c.Name = cfg.AttributesDriver
		if s.attributes, err = OpenAdapter(ctx, c); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("store: open attributes %s: %w", cfg.AttributesDriver, err)
		}
	}
	if s.configs.ProviderConfigs() == nil {
		_ = s.Close()
		return nil, fmt.Errorf("store: %s does not support provider configs", s.configs.Name())
	}

	logger.From(ctx).Info("stores opened",
		logger.Component("store"),
		zap.String("main", main.Name()),
		zap.String("configs", s.configs.Name()),
		zap.String("attributes", s.attributes.Name()),
	)
	return s, nil
}

// ProviderConfigs repositorio de configs de proveedores.
func (s *Stores) ProviderConfigs() repository.ProviderConfigRepository {
	return s.configs.ProviderConfigs()
}

// Subjects repositorio de subjects.
func (s *Stores) Subjects() repository.SubjectRepository { return s.Main.Subjects() }

// Accounts cuentas de una authority.
func (s *Stores) Accounts(authority string) repository.AccountRepository {
	return s.Main.Accounts(authority)
}

// Credentials credenciales de una authority.
func (s *Stores) Credentials(authority string) repository.CredentialsRepository {
	return s.Main.Credentials(authority)
}

// Attributes store de atributos de un proveedor; nil si ningún adapter lo soporta.
func (s *Stores) Attributes(authority, providerID string) repository.AttributeRepository {
	return s.attributes.Attributes(authority, providerID)
}

// Tx transacciones del store principal.
func (s *Stores) Tx() repository.TxManager { return s.Main.Tx() }

// DB retorna el *sql.DB del store principal, o nil si no es SQL.
func (s *Stores) DB() *sql.DB {
	if m, ok := s.Main.(MigratableConnection); ok {
		return m.DB()
	}
	return nil
}

// Ping verifica todas las conexiones.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	for _, c := range s.connections() {
		if err := c.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close cierra todas las conexiones.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.connections() {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Stores) connections() []AdapterConnection {
	out := []AdapterConnection{s.Main}
	if s.configs != nil && s.configs != s.Main {
		out = append(out, s.configs)
	}
	if s.attributes != nil && s.attributes != s.Main {
		out = append(out, s.attributes)
	}
	return out
}
