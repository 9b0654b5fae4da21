package provider

// Instance es lo mínimo que el registry necesita de una instancia viva.
type Instance interface {
	Authority() string
	ProviderID() string
	Realm() string
	// Version es la versión de la config con la que se construyó la instancia.
	Version() int
}

// Configured guarda los campos comunes de una instancia construida desde Config[C].
// Las authorities lo embeben en su tipo de proveedor.
type Configured[C any] struct {
	config Config[C]
}

// NewConfigured crea la base de una instancia.
func NewConfigured[C any](cfg Config[C]) Configured[C] {
	return Configured[C]{config: cfg}
}

func (c Configured[C]) Authority() string    { return c.config.Authority }
func (c Configured[C]) ProviderID() string   { return c.config.ProviderID }
func (c Configured[C]) Realm() string        { return c.config.Realm }
func (c Configured[C]) Version() int         { return c.config.Version }
func (c Configured[C]) RepositoryID() string { return c.config.RepositoryID }
func (c Configured[C]) Name() string         { return c.config.Name }
func (c Configured[C]) Settings() C          { return c.config.Settings }
func (c Configured[C]) Config() Config[C]    { return c.config }
