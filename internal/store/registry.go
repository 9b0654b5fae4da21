// Package store provee el registry de adaptadores de almacenamiento y arma el
// bundle de repositorios que consume el resto del sistema.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// Adapter representa un backend de almacenamiento capaz de crear repositorios.
type Adapter interface {
	// Name retorna el nombre del adapter (ej: "memory", "postgres", "fs", "redis").
	Name() string

	// Connect establece conexión con el almacenamiento.
	Connect(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error)
}

// AdapterConnection representa una conexión activa.
// Los repositorios no soportados por el adapter retornan nil.
type AdapterConnection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	ProviderConfigs() repository.ProviderConfigRepository
	Subjects() repository.SubjectRepository
	// Accounts y Credentials están acotados a una authority.
	Accounts(authority string) repository.AccountRepository
	Credentials(authority string) repository.CredentialsRepository
	// Attributes está acotado a un proveedor.
	Attributes(authority, providerID string) repository.AttributeRepository
	// Tx coordina los repositorios de esta conexión.
	Tx() repository.TxManager
}

// MigratableConnection la implementan las conexiones SQL.
type MigratableConnection interface {
	DB() *sql.DB
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "memory", "postgres", "fs", "redis"
	Name string

	// DSN connection string (postgres)
	DSN string

	// FSRoot directorio raíz (fs)
	FSRoot string

	// Redis
	RedisAddr     string
	RedisDB       int
	RedisPassword string

	// Pool settings (postgres)
	MaxOpenConns int
	MaxIdleConns int
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[normalizeName(name)]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter abre una conexión usando el adapter especificado en la config.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered", cfg.Name)
	}
	return a.Connect(ctx, cfg)
}

func normalizeName(name string) string {
	switch name {
	case "pg", "postgresql":
		return "postgres"
	case "mem", "":
		return "memory"
	}
	return name
}
