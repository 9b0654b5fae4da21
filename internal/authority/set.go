package authority

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dropDatabas3/idbroker/internal/provider"
)

// Set es el conjunto inmutable de authorities, armado una vez al arrancar.
type Set struct {
	byID map[string]IdentityAuthority
	ids  []string
}

// NewSet falla si dos authorities comparten id.
func NewSet(authorities ...IdentityAuthority) (*Set, error) {
	s := &Set{byID: make(map[string]IdentityAuthority, len(authorities))}
	for _, a := range authorities {
		id := a.ID()
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("authority %q registered twice", id)
		}
		s.byID[id] = a
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
	return s, nil
}

// IDs ids registrados, ordenados.
func (s *Set) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Find retorna nil si la authority no existe.
func (s *Set) Find(id string) IdentityAuthority {
	return s.byID[strings.TrimSpace(id)]
}

// Get retorna ErrNoSuchAuthority si la authority no existe.
func (s *Set) Get(id string) (IdentityAuthority, error) {
	a := s.Find(id)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchAuthority, id)
	}
	return a, nil
}

// RegisterProvider despacha a la authority indicada en la config.
func (s *Set) RegisterProvider(ctx context.Context, in provider.Configurable) (provider.Configurable, error) {
	a, err := s.Get(in.Authority)
	if err != nil {
		return provider.Configurable{}, err
	}
	return a.RegisterProvider(ctx, in)
}

// FindIdentityProvider busca providerID en todas las authorities.
func (s *Set) FindIdentityProvider(ctx context.Context, providerID string) (IdentityProvider, error) {
	for _, id := range s.ids {
		p, err := s.byID[id].FindProvider(ctx, providerID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, nil
}

// IdentityProvidersByRealm junta los proveedores del realm de todas las authorities.
func (s *Set) IdentityProvidersByRealm(ctx context.Context, realm string) ([]IdentityProvider, error) {
	var out []IdentityProvider
	for _, id := range s.ids {
		list, err := s.byID[id].GetProvidersByRealm(ctx, realm)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}
