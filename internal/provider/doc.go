// Package provider implementa el registry genérico de proveedores: convierte la
// configuración persistida por realm en instancias vivas, con cache acotado y
// construcción coalescida por providerID.
//
// Cada authority (tipo de backend: "internal", "oidc", ...) crea un Registry
// parametrizado por su tipo de instancia P y su tipo de settings C, y aporta:
//
//   - un ConfigProvider[C] con los defaults y la validación de sus settings
//   - un Factory[P, C] que construye la instancia desde la config efectiva
//
// La coherencia del cache sale exclusivamente de la versión de la config:
// una instancia nunca se sirve si el store tiene una versión mayor.
package provider
