// Package identity convierte principals recién autenticados en cuentas durables
// e identidades, y ofrece las lecturas, el link y el borrado de esas identidades.
//
// Flujo de ConvertIdentity:
//
//	PrincipalReceived → AccountResolved → AccountPersisted → AttributesConverted → IdentityBuilt
//
// La persistencia de subject + cuenta y la conversión de atributos corren en una
// sola transacción por ejecución. Re-autenticar el mismo principal con el mismo
// dueño es idempotente; con otro dueño siempre falla.
package identity
