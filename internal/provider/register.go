package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/idbroker/internal/audit"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/metrics"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

// RegisterProvider valida y persiste la config y construye la instancia en el
// momento, para que los errores de construcción lleguen al caller. Si algo falla
// luego de escribir, la config se elimina antes de retornar el error.
func (r *Registry[P, C]) RegisterProvider(ctx context.Context, in Configurable) (*Config[C], error) {
	in = in.normalized()
	if in.Authority != r.authority {
		return nil, fmt.Errorf("%w: registry %s got %q", ErrAuthorityMismatch, r.authority, in.Authority)
	}
	if in.Provider == "" || in.Realm == "" {
		return nil, fmt.Errorf("%w: provider and realm are required", ErrInvalidConfig)
	}

	log := logger.From(ctx).With(
		logger.Component("provider.registry"),
		logger.Authority(r.authority),
		logger.ProviderID(in.Provider),
		logger.Realm(in.Realm),
	)

	existing, err := r.configs.FindByProviderID(ctx, in.Provider)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		existing = nil
	}
	if existing != nil && (existing.Realm != in.Realm || existing.Authority != r.authority) {
		r.countRegistration("conflict")
		return nil, fmt.Errorf("%w: %s", ErrProviderIDTaken, in.Provider)
	}

	if r.singleInstance {
		list, err := r.configs.FindByRealm(ctx, r.authority, in.Realm)
		if err != nil {
			return nil, err
		}
		for _, c := range list {
			if c.ProviderID != in.Provider {
				r.countRegistration("conflict")
				return nil, fmt.Errorf("%w: realm %s already has %s", ErrSingleInstance, in.Realm, c.ProviderID)
			}
		}
	}

	version := 0
	if in.Version != nil {
		version = *in.Version
	}
	if existing != nil {
		if r.versioned {
			switch {
			case in.Version == nil:
				return nil, ErrVersionRequired
			case *in.Version == existing.Version:
				// idempotente: se retorna la config efectiva vigente
				cfg, err := toConfig(existing, r.settings, r.codec)
				if err != nil {
					return nil, err
				}
				r.countRegistration("noop")
				return &cfg, nil
			case *in.Version < existing.Version:
				r.countRegistration("conflict")
				return nil, fmt.Errorf("%w: got %d, stored %d", ErrStaleVersion, *in.Version, existing.Version)
			}
		} else if version <= existing.Version {
			// sin control de versión la actualización siempre avanza la versión
			version = existing.Version + 1
		}
	}

	// config efectiva: settings sobre los defaults de la authority
	settings, err := r.codec.Decode(r.settings.Defaults(), in.Settings)
	if err != nil {
		return nil, err
	}
	if err := r.settings.Validate(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	settingsMap, err := r.codec.Encode(settings)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stored := &repository.ProviderConfig{
		Authority:      r.authority,
		ProviderID:     in.Provider,
		Realm:          in.Realm,
		Name:           in.Name,
		TitleMap:       in.TitleMap,
		DescriptionMap: in.DescriptionMap,
		RepositoryID:   in.RepositoryID,
		Version:        version,
		Settings:       settingsMap,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing != nil {
		stored.CreatedAt = existing.CreatedAt
	}

	// el store vuelve a verificar realm y authority al escribir: otro registro
	// concurrente pudo tomar el id después del chequeo de arriba
	if err := r.configs.Upsert(ctx, stored); err != nil {
		if errors.Is(err, repository.ErrProviderIDTaken) {
			r.countRegistration("conflict")
			return nil, fmt.Errorf("%w: %s", ErrProviderIDTaken, in.Provider)
		}
		r.countRegistration("error")
		return nil, fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	// warm up: la instancia se construye ahora
	r.cache.evict(in.Provider)
	p, err := r.load(ctx, stored)
	if err != nil {
		log.Warn("provider registration rolled back", logger.Err(err))
		return nil, r.rollback(ctx, in.Provider, err)
	}
	r.countRegistration("ok")
	audit.Log(ctx, audit.ProviderRegistered, map[string]any{
		"authority":   r.authority,
		"provider_id": in.Provider,
		"realm":       in.Realm,
		"version":     p.Version(),
	})

	cfg, err := toConfig(stored, r.settings, r.codec)
	if err != nil {
		return nil, r.rollback(ctx, in.Provider, err)
	}
	return &cfg, nil
}

// rollback elimina la config recién escrita y envuelve la causa.
func (r *Registry[P, C]) rollback(ctx context.Context, providerID string, cause error) error {
	r.countRegistration("error")
	r.cache.evict(providerID)
	if err := r.configs.Remove(ctx, providerID); err != nil {
		logger.From(ctx).Error("provider rollback failed",
			logger.Component("provider.registry"),
			logger.Authority(r.authority),
			logger.ProviderID(providerID),
			logger.Err(err),
		)
		return fmt.Errorf("%w: %w (rollback: %v)", ErrRegistration, cause, err)
	}
	return fmt.Errorf("%w: %w", ErrRegistration, cause)
}

// UnregisterProvider no hace nada si el proveedor no existe o pertenece al realm
// del sistema. Primero se descarta la instancia y luego se borra la config.
func (r *Registry[P, C]) UnregisterProvider(ctx context.Context, providerID string) error {
	stored, err := r.lookup(ctx, providerID)
	if err != nil {
		return err
	}
	if stored == nil || stored.Realm == repository.SystemRealm {
		return nil
	}
	r.cache.evict(stored.ProviderID)
	if err := r.configs.Remove(ctx, stored.ProviderID); err != nil {
		return err
	}
	audit.Log(ctx, audit.ProviderUnregistered, map[string]any{
		"authority":   r.authority,
		"provider_id": stored.ProviderID,
		"realm":       stored.Realm,
	})
	return nil
}

func (r *Registry[P, C]) countRegistration(result string) {
	metrics.ProviderRegistrations.WithLabelValues(r.authority, result).Inc()
}
