// Package memory implementa un store en proceso. Las transacciones se serializan y
// se revierten con un journal de undo.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	store "github.com/dropDatabas3/idbroker/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

// DB es el estado completo del store.
type DB struct {
	mu sync.RWMutex

	configs     map[string]repository.ProviderConfig
	accounts    map[accountKey]repository.Account
	subjects    map[string]repository.Subject
	credentials map[string]repository.Credentials
	attributes  map[attrKey]map[string]any

	txMu sync.Mutex
}

type accountKey struct{ authority, repositoryID, accountID string }

type attrKey struct{ authority, provider, principalID string }

// New crea un store vacío.
func New() *DB {
	return &DB{
		configs:     map[string]repository.ProviderConfig{},
		accounts:    map[accountKey]repository.Account{},
		subjects:    map[string]repository.Subject{},
		credentials: map[string]repository.Credentials{},
		attributes:  map[attrKey]map[string]any{},
	}
}

func (db *DB) Name() string                   { return "memory" }
func (db *DB) Ping(ctx context.Context) error { return nil }
func (db *DB) Close() error                   { return nil }

func (db *DB) ProviderConfigs() repository.ProviderConfigRepository { return &configRepo{db: db} }
func (db *DB) Subjects() repository.SubjectRepository               { return &subjectRepo{db: db} }
func (db *DB) Tx() repository.TxManager                             { return db }

func (db *DB) Accounts(authority string) repository.AccountRepository {
	return &accountRepo{db: db, authority: authority}
}

func (db *DB) Credentials(authority string) repository.CredentialsRepository {
	return &credentialsRepo{db: db, authority: authority}
}

func (db *DB) Attributes(authority, providerID string) repository.AttributeRepository {
	return &attributeRepo{db: db, authority: authority, provider: providerID}
}

// ─── Transacciones ───

type journalKey struct{}

type journal struct {
	undo []func()
}

// WithinTx serializa las transacciones. Si fn falla se aplican los undo en orden
// inverso. Las escrituras fuera de una transacción no se registran.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	j := &journal{}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				db.rollback(j)
				panic(r)
			}
		}()
		return fn(context.WithValue(ctx, journalKey{}, j))
	}()
	if err != nil {
		db.rollback(j)
	}
	return err
}

func (db *DB) rollback(j *journal) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

// record registra el undo de una escritura. Se llama con db.mu tomado.
func record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// ─── copias ───

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyConfig(c repository.ProviderConfig) repository.ProviderConfig {
	c.TitleMap = copyStrings(c.TitleMap)
	c.DescriptionMap = copyStrings(c.DescriptionMap)
	c.Settings = copyMap(c.Settings)
	return c
}

func copyAccount(a repository.Account) repository.Account {
	a.Attributes = copyMap(a.Attributes)
	return a
}

func copyCredentials(c repository.Credentials) repository.Credentials {
	if c.Value != nil {
		c.Value = append([]byte(nil), c.Value...)
	}
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		c.ExpiresAt = &t
	}
	return c
}
