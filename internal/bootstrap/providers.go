// Package bootstrap registra proveedores declarados en un archivo YAML al arrancar.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
	"github.com/dropDatabas3/idbroker/internal/provider"
)

// Registrar lo implementa authority.Set.
type Registrar interface {
	RegisterProvider(ctx context.Context, in provider.Configurable) (provider.Configurable, error)
}

// File es el formato del archivo de import.
//
//	providers:
//	  - authority: internal
//	    provider: acme-internal
//	    realm: acme
//	    settings:
//	      enableDelete: false
type File struct {
	Providers []provider.Configurable `yaml:"providers"`
}

// LoadFile lee y parsea el archivo de import.
func LoadFile(path string) ([]provider.Configurable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: bootstrap: parse %s: %v", repository.ErrInvalidInput, path, err)
	}
	return f.Providers, nil
}

// ImportProviders registra los proveedores del archivo en orden y corta en el
// primer error. Los ya registrados quedan registrados. Un proveedor existente sin
// version en el archivo se saltea, así el import es repetible en cada arranque;
// para actualizarlo hay que declarar una version mayor.
func ImportProviders(ctx context.Context, r Registrar, path string) ([]provider.Configurable, error) {
	list, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Register(ctx, r, list)
}

// Register registra una lista ya parseada.
func Register(ctx context.Context, r Registrar, list []provider.Configurable) ([]provider.Configurable, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"))

	out := make([]provider.Configurable, 0, len(list))
	for i, in := range list {
		res, err := r.RegisterProvider(ctx, in)
		if in.Version == nil && errors.Is(err, provider.ErrVersionRequired) {
			// ya registrado en un arranque anterior; sin versión no se actualiza
			log.Info("provider already registered, skipped",
				logger.Authority(in.Authority),
				logger.ProviderID(in.Provider),
				logger.Realm(in.Realm),
			)
			continue
		}
		if err != nil {
			return out, fmt.Errorf("bootstrap: provider #%d (%s/%s): %w", i, in.Authority, in.Provider, err)
		}
		out = append(out, res)

		version := 0
		if res.Version != nil {
			version = *res.Version
		}
		log.Info("provider registered",
			logger.Authority(res.Authority),
			logger.ProviderID(res.Provider),
			logger.Realm(res.Realm),
			logger.Version(version),
		)
	}
	return out, nil
}
