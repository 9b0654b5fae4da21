// Package repository define los registros persistidos y las interfaces de
// almacenamiento del núcleo de federación de proveedores.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, Redis, FileSystem, memoria).
//
// Las implementaciones concretas viven en internal/store/adapters/.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│   provider.Registry / identity.Service / services   │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  ProviderConfig, Account, Subject, Credentials,     │
//	│  Attribute repositories + TxManager                 │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	   ┌──────────────┬─────┴────────┬──────────────┐
//	   ▼              ▼              ▼              ▼
//	┌────────┐   ┌────────┐     ┌────────┐     ┌────────┐
//	│ memory │   │   pg   │     │   fs   │     │ redis  │
//	└────────┘   └────────┘     └────────┘     └────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los lookups devuelven ErrNotFound cuando el registro no existe
//   - Las cuentas y credenciales se guardan bajo un repositoryID (por defecto el realm)
//   - Errores de dominio están en errors.go
package repository
