package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/metrics"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

// maxLoadAttempts acota los reintentos cuando una construcción compartida
// resultó de una versión anterior a la pedida.
const maxLoadAttempts = 3

// Factory construye la instancia viva de un proveedor.
type Factory[P Instance, C any] interface {
	BuildProvider(ctx context.Context, cfg Config[C]) (P, error)
}

// FactoryFunc adapta una función a Factory.
type FactoryFunc[P Instance, C any] func(ctx context.Context, cfg Config[C]) (P, error)

func (f FactoryFunc[P, C]) BuildProvider(ctx context.Context, cfg Config[C]) (P, error) {
	return f(ctx, cfg)
}

// Option configura un Registry.
type Option func(*options)

type options struct {
	singleInstance bool
	versioned      bool
	cacheSize      int
	cacheTTL       time.Duration
	codec          any
	log            *zap.Logger
}

// SingleInstance limita la authority a un proveedor por realm.
func SingleInstance() Option { return func(o *options) { o.singleInstance = true } }

// Versioned exige versión en las actualizaciones y aplica el control optimista.
func Versioned() Option { return func(o *options) { o.versioned = true } }

// WithCacheSize fija el tope blando de instancias vivas.
func WithCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }

// WithCacheTTL fija la expiración de una instancia desde su construcción.
func WithCacheTTL(d time.Duration) Option { return func(o *options) { o.cacheTTL = d } }

// WithCodec reemplaza el YAMLCodec por defecto.
func WithCodec[C any](c Codec[C]) Option { return func(o *options) { o.codec = c } }

// WithLogger fija el logger base del registry.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// Registry mapea providerID → instancia viva para una authority, coherente con
// el store de configs.
type Registry[P Instance, C any] struct {
	authority      string
	configs        repository.ProviderConfigRepository
	settings       ConfigProvider[C]
	factory        Factory[P, C]
	codec          Codec[C]
	singleInstance bool
	versioned      bool
	cache          *instanceCache[P]
	log            *zap.Logger
}

// NewRegistry crea el registry de una authority.
func NewRegistry[P Instance, C any](
	authority string,
	configs repository.ProviderConfigRepository,
	settings ConfigProvider[C],
	factory Factory[P, C],
	opts ...Option,
) *Registry[P, C] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	codec, ok := o.codec.(Codec[C])
	if !ok {
		codec = YAMLCodec[C]{}
	}
	log := o.log
	if log == nil {
		log = logger.L()
	}
	return &Registry[P, C]{
		authority:      authority,
		configs:        configs,
		settings:       settings,
		factory:        factory,
		codec:          codec,
		singleInstance: o.singleInstance,
		versioned:      o.versioned,
		cache:          newInstanceCache[P](o.cacheSize, o.cacheTTL),
		log:            log.With(logger.Component("provider.registry"), logger.Authority(authority)),
	}
}

// Authority retorna el id de la authority del registry.
func (r *Registry[P, C]) Authority() string { return r.authority }

// HasProvider consulta sólo el store, sin instanciar.
func (r *Registry[P, C]) HasProvider(ctx context.Context, providerID string) (bool, error) {
	stored, err := r.lookup(ctx, providerID)
	if err != nil {
		return false, err
	}
	return stored != nil, nil
}

// FindProvider retorna la instancia viva o el zero value de P si el proveedor no
// existe o no se pudo construir. Sólo retorna error si falla el store de configs.
func (r *Registry[P, C]) FindProvider(ctx context.Context, providerID string) (P, error) {
	p, _, err := r.find(ctx, providerID)
	return p, err
}

// GetProvider es FindProvider pero retorna ErrNoSuchProvider en vez del zero value.
func (r *Registry[P, C]) GetProvider(ctx context.Context, providerID string) (P, error) {
	p, ok, err := r.find(ctx, providerID)
	if err != nil {
		return p, err
	}
	if !ok {
		return p, fmt.Errorf("%w: %s", ErrNoSuchProvider, providerID)
	}
	return p, nil
}

// GetProvidersByRealm resuelve todas las instancias del realm. Las que no se
// pueden construir se omiten: el resultado puede ser parcial.
func (r *Registry[P, C]) GetProvidersByRealm(ctx context.Context, realm string) ([]P, error) {
	list, err := r.configs.FindByRealm(ctx, r.authority, realm)
	if err != nil {
		return nil, err
	}
	out := make([]P, 0, len(list))
	for i := range list {
		p, err := r.load(ctx, &list[i])
		if err != nil {
			r.logUnavailable(ctx, &list[i], err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListProviders lista las configs del realm en su forma externa, sin instanciar.
func (r *Registry[P, C]) ListProviders(ctx context.Context, realm string) ([]Configurable, error) {
	list, err := r.configs.FindByRealm(ctx, r.authority, realm)
	if err != nil {
		return nil, err
	}
	out := make([]Configurable, 0, len(list))
	for i := range list {
		out = append(out, ToConfigurable(&list[i]))
	}
	return out, nil
}

// Codec retorna el codec de settings del registry.
func (r *Registry[P, C]) Codec() Codec[C] { return r.codec }

// Evict descarta la instancia cacheada; el próximo Find la reconstruye.
func (r *Registry[P, C]) Evict(providerID string) {
	r.cache.evict(providerID)
}

// CacheSize cantidad de entradas en el cache (incluye expiradas aún no purgadas).
func (r *Registry[P, C]) CacheSize() int {
	return r.cache.size()
}

// lookup retorna nil si la config no existe o es de otra authority.
func (r *Registry[P, C]) lookup(ctx context.Context, providerID string) (*repository.ProviderConfig, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, nil
	}
	stored, err := r.configs.FindByProviderID(ctx, providerID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stored.Authority != r.authority {
		return nil, nil
	}
	return stored, nil
}

func (r *Registry[P, C]) find(ctx context.Context, providerID string) (P, bool, error) {
	var zero P
	stored, err := r.lookup(ctx, providerID)
	if err != nil {
		return zero, false, err
	}
	if stored == nil {
		r.cache.evict(providerID)
		return zero, false, nil
	}
	p, err := r.load(ctx, stored)
	if err != nil {
		// proveedor roto = temporalmente no disponible, no es fatal
		r.logUnavailable(ctx, stored, err)
		return zero, false, nil
	}
	return p, true, nil
}

// load devuelve la instancia cacheada si su versión no es menor a la del store;
// si no, construye una nueva. Las construcciones por providerID se coalescen.
func (r *Registry[P, C]) load(ctx context.Context, stored *repository.ProviderConfig) (P, error) {
	var zero P
	id := stored.ProviderID

	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		if p, ok := r.cache.get(id); ok {
			if p.Version() >= stored.Version {
				metrics.ProviderCacheLookups.WithLabelValues(r.authority, "hit").Inc()
				return p, nil
			}
			metrics.ProviderCacheLookups.WithLabelValues(r.authority, "stale").Inc()
			r.cache.evict(id)
		} else {
			metrics.ProviderCacheLookups.WithLabelValues(r.authority, "miss").Inc()
		}

		v, err, _ := r.cache.sf.Do(id, func() (any, error) {
			if p, ok := r.cache.get(id); ok && p.Version() >= stored.Version {
				return p, nil
			}
			// la construcción es compartida: no depende de la cancelación de un caller
			p, err := r.build(context.WithoutCancel(ctx), stored)
			if err != nil {
				return nil, err
			}
			r.cache.put(id, p)
			return p, nil
		})
		if err != nil {
			return zero, err
		}
		p := v.(P)
		if p.Version() >= stored.Version {
			return p, nil
		}
		// la construcción compartida era de una versión anterior: reintentar
	}
	return zero, fmt.Errorf("%w: provider %s did not reach version %d", repository.ErrUnavailable, id, stored.Version)
}

// build invoca al factory; un panic del factory se trata como error.
func (r *Registry[P, C]) build(ctx context.Context, stored *repository.ProviderConfig) (p P, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: build panicked: %v", repository.ErrUnavailable, rec)
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.ProviderBuilds.WithLabelValues(r.authority, result).Inc()
	}()

	cfg, err := toConfig(stored, r.settings, r.codec)
	if err != nil {
		return p, err
	}
	p, err = r.factory.BuildProvider(ctx, cfg)
	if err != nil {
		return p, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	r.log.Debug("provider built",
		logger.ProviderID(stored.ProviderID),
		logger.Realm(stored.Realm),
		logger.Version(stored.Version),
	)
	return p, nil
}

func (r *Registry[P, C]) logUnavailable(ctx context.Context, stored *repository.ProviderConfig, err error) {
	logger.From(ctx).Warn("provider unavailable",
		logger.Component("provider.registry"),
		logger.Authority(r.authority),
		logger.ProviderID(stored.ProviderID),
		logger.Realm(stored.Realm),
		logger.Version(stored.Version),
		logger.Err(err),
	)
}
