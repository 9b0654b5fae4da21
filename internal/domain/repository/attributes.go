package repository

import "context"

// AttributeRepository guarda los claims crudos de un principal.
// Cada instancia está acotada a un proveedor.
type AttributeRepository interface {
	// SetAttributes reemplaza los atributos guardados para el principal.
	SetAttributes(ctx context.Context, principalID string, entries map[string]any) error

	// FindAttributes retorna un mapa vacío si no hay atributos.
	FindAttributes(ctx context.Context, principalID string) (map[string]any, error)

	// DeleteAttributes elimina los atributos. No falla si no existen.
	DeleteAttributes(ctx context.Context, principalID string) error
}
