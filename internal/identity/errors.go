package identity

import (
	"fmt"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

var (
	ErrMissingPrincipalID = fmt.Errorf("%w: principal id is required", repository.ErrInvalidInput)
	ErrMissingUserID      = fmt.Errorf("%w: user id is required", repository.ErrInvalidInput)
	// ErrClaimMismatch los claims del principal no coinciden con la cuenta convertida.
	ErrClaimMismatch = fmt.Errorf("%w: principal claims do not match account", repository.ErrInvalidInput)
	// ErrForeignPrincipal el principal viene de otra authority o de otro proveedor.
	ErrForeignPrincipal = fmt.Errorf("%w: principal belongs to another provider", repository.ErrInvalidInput)
	// ErrOwnerMismatch la cuenta pertenece a otro usuario.
	ErrOwnerMismatch = fmt.Errorf("%w: account owned by another user", repository.ErrConflict)
	// ErrNotAuthoritative el proveedor no es dueño de las cuentas y no las re-vincula.
	ErrNotAuthoritative = fmt.Errorf("%w: provider is not authoritative", repository.ErrConflict)
	ErrNoSuchIdentity   = fmt.Errorf("%w: no such identity", repository.ErrNotFound)
)
