// Package attributes implementa la base de los attribute providers: transforman
// (principal, cuenta) en sets de atributos con nombre.
//
// El store de atributos es opcional. Con store, los claims crudos del principal se
// guardan por principalID y las lecturas posteriores derivan los sets de lo guardado.
// Sin store el provider es stateless y deriva de los atributos de la cuenta.
package attributes
