package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - FEDERACIÓN
// =================================================================================

// Realm crea un campo para el realm (tenant).
func Realm(v string) zap.Field {
	return zap.String("realm", v)
}

// Authority crea un campo para la authority (tipo de backend).
func Authority(v string) zap.Field {
	return zap.String("authority", v)
}

// ProviderID crea un campo para el id del proveedor.
func ProviderID(v string) zap.Field {
	return zap.String("provider_id", v)
}

// Version crea un campo para la versión de una config.
func Version(v int) zap.Field {
	return zap.Int("version", v)
}

// AccountID crea un campo para el id local de la cuenta.
func AccountID(v string) zap.Field {
	return zap.String("account_id", v)
}

// UserID crea un campo para el dueño de la cuenta.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// SubjectID crea un campo para el uuid del subject.
func SubjectID(v string) zap.Field {
	return zap.String("subject_id", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
