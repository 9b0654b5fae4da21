package repository

import "context"

// TxManager ejecuta fn dentro de una transacción atómica.
// Los repositorios del mismo store que reciben el ctx de fn participan de ella.
// Si fn retorna error se hace rollback y el error se propaga tal cual.
// Llamadas anidadas con un ctx que ya está en transacción reutilizan la misma.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
