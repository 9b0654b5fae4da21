// Package fs implementa un store de configs de proveedores sobre archivos YAML.
// Cada proveedor vive en <root>/providers/<providerID>.yaml.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	store "github.com/dropDatabas3/idbroker/internal/store"
)

func init() {
	store.RegisterAdapter(&fsAdapter{})
}

// fsAdapter implementa store.Adapter para FileSystem.
type fsAdapter struct{}

func (a *fsAdapter) Name() string { return "fs" }

func (a *fsAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	root := cfg.FSRoot
	if root == "" {
		root = "data"
	}
	return Open(root)
}

// Open abre (y crea si hace falta) el directorio raíz.
func Open(root string) (*Connection, error) {
	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, fmt.Errorf("fs: failed to create root path %s: %w", root, mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("fs: root path error: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &Connection{root: root}, nil
}

// Connection representa una conexión activa al FileSystem.
type Connection struct {
	root string
	mu   sync.RWMutex
}

func (c *Connection) Name() string { return "fs" }

func (c *Connection) Ping(ctx context.Context) error {
	_, err := os.Stat(c.root)
	return err
}

func (c *Connection) Close() error { return nil }

func (c *Connection) ProviderConfigs() repository.ProviderConfigRepository {
	return &configRepo{conn: c, dir: filepath.Join(c.root, "providers")}
}

// ─── No soportados ───

func (c *Connection) Subjects() repository.SubjectRepository                   { return nil }
func (c *Connection) Accounts(string) repository.AccountRepository             { return nil }
func (c *Connection) Credentials(string) repository.CredentialsRepository      { return nil }
func (c *Connection) Attributes(string, string) repository.AttributeRepository { return nil }
func (c *Connection) Tx() repository.TxManager                                 { return nil }
