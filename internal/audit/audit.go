// Package audit emite eventos estructurados de las mutaciones del ciclo de vida
// (registro de proveedores, alta/link/baja de identidades).
package audit

import (
	"context"
	"time"

	"github.com/dropDatabas3/idbroker/internal/observability/logger"
	"go.uber.org/zap"
)

// Eventos conocidos.
const (
	ProviderRegistered   = "provider.registered"
	ProviderUnregistered = "provider.unregistered"
	AccountCreated       = "identity.account_created"
	AccountUpdated       = "identity.account_updated"
	IdentityLinked       = "identity.linked"
	IdentityDeleted      = "identity.deleted"
	CredentialsRevoked   = "credentials.revoked"
)

// Log escribe un evento de auditoría con el logger del contexto, bajo el nombre "audit".
func Log(ctx context.Context, event string, fields map[string]any) {
	zf := make([]zap.Field, 0, len(fields)+2)
	zf = append(zf,
		zap.String("event", event),
		zap.String("ts", time.Now().UTC().Format(time.RFC3339Nano)),
	)
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	logger.From(ctx).Named("audit").Info(event, zf...)
}
