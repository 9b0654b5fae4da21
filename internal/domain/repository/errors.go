package repository

import "errors"

// Tipos de error. Todo error específico del núcleo envuelve exactamente uno de
// estos con fmt.Errorf("%w: ...") para que los callers puedan usar errors.Is.
var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: id duplicado, versión vieja, dueño distinto).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	// Cubre config mal formada, campos de principal faltantes y claims inconsistentes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indica que un proveedor no pudo construirse.
	ErrUnavailable = errors.New("unavailable")

	// ErrNotImplemented indica que la operación no está implementada por este driver.
	ErrNotImplemented = errors.New("not implemented")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidInput verifica si el error es ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
