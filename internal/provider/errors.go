package provider

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

var (
	// ErrNoSuchProvider lo retorna GetProvider cuando el proveedor no existe o no se pudo construir.
	ErrNoSuchProvider = fmt.Errorf("%w: no such provider", repository.ErrNotFound)

	// ErrProviderIDTaken el providerID ya está registrado bajo otro realm (o por otra authority).
	ErrProviderIDTaken = repository.ErrProviderIDTaken

	// ErrStaleVersion la versión enviada es menor a la guardada.
	ErrStaleVersion = fmt.Errorf("%w: stale provider config version", repository.ErrConflict)

	// ErrSingleInstance la authority admite un solo proveedor por realm.
	ErrSingleInstance = fmt.Errorf("%w: authority allows a single provider per realm", repository.ErrConflict)

	// ErrVersionRequired una actualización de una authority versionada requiere versión.
	ErrVersionRequired = fmt.Errorf("%w: version is required to update provider", repository.ErrInvalidInput)

	// ErrInvalidConfig settings mal formados o inválidos.
	ErrInvalidConfig = fmt.Errorf("%w: invalid provider config", repository.ErrInvalidInput)

	// ErrRegistration envuelve la causa de un registro fallido, luego del rollback.
	ErrRegistration = errors.New("provider registration failed")

	// ErrAuthorityMismatch la config pertenece a otra authority. Es un bug del caller.
	ErrAuthorityMismatch = errors.New("provider authority mismatch")
)
