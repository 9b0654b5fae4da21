package authority

import "github.com/dropDatabas3/idbroker/internal/domain/repository"

// Stores son los repositorios que necesitan las authorities. *store.Stores lo
// implementa.
type Stores interface {
	ProviderConfigs() repository.ProviderConfigRepository
	Subjects() repository.SubjectRepository
	Accounts(authority string) repository.AccountRepository
	Credentials(authority string) repository.CredentialsRepository
	// Attributes puede retornar nil: el proveedor queda stateless.
	Attributes(authority, providerID string) repository.AttributeRepository
	Tx() repository.TxManager
}
