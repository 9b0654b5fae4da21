package provider

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// Configurable es la representación externa de la config de un proveedor
// (lo que llega por import YAML o desde la consola de admin).
type Configurable struct {
	Authority      string            `yaml:"authority" json:"authority"`
	Provider       string            `yaml:"provider" json:"provider"`
	Realm          string            `yaml:"realm" json:"realm"`
	Name           string            `yaml:"name,omitempty" json:"name,omitempty"`
	TitleMap       map[string]string `yaml:"titleMap,omitempty" json:"titleMap,omitempty"`
	DescriptionMap map[string]string `yaml:"descriptionMap,omitempty" json:"descriptionMap,omitempty"`
	RepositoryID   string            `yaml:"repositoryId,omitempty" json:"repositoryId,omitempty"`
	// Version nil = no especificada.
	Version  *int           `yaml:"version,omitempty" json:"version,omitempty"`
	Settings map[string]any `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Config es la config efectiva y tipada de un proveedor.
type Config[C any] struct {
	Authority      string
	ProviderID     string
	Realm          string
	Name           string
	TitleMap       map[string]string
	DescriptionMap map[string]string
	RepositoryID   string
	Version        int
	Settings       C
}

// ConfigProvider aporta los defaults y la validación de los settings de una authority.
type ConfigProvider[C any] interface {
	// Defaults retorna un valor nuevo en cada llamada.
	Defaults() C
	Validate(settings C) error
}

// Codec convierte entre el mapa de settings persistido y el tipo de settings.
type Codec[C any] interface {
	// Decode aplica m sobre defaults; los campos ausentes conservan el default.
	Decode(defaults C, m map[string]any) (C, error)
	Encode(settings C) (map[string]any, error)
}

// YAMLCodec usa los tags yaml del tipo de settings.
type YAMLCodec[C any] struct{}

func (YAMLCodec[C]) Decode(defaults C, m map[string]any) (C, error) {
	out := defaults
	if len(m) == 0 {
		return out, nil
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return out, nil
}

func (YAMLCodec[C]) Encode(settings C) (map[string]any, error) {
	b, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return out, nil
}

// toConfig arma la config tipada a partir del registro persistido.
func toConfig[C any](stored *repository.ProviderConfig, cp ConfigProvider[C], codec Codec[C]) (Config[C], error) {
	settings, err := codec.Decode(cp.Defaults(), stored.Settings)
	if err != nil {
		return Config[C]{}, err
	}
	if err := cp.Validate(settings); err != nil {
		return Config[C]{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	repositoryID := stored.RepositoryID
	if repositoryID == "" {
		repositoryID = stored.Realm
	}
	return Config[C]{
		Authority:      stored.Authority,
		ProviderID:     stored.ProviderID,
		Realm:          stored.Realm,
		Name:           stored.Name,
		TitleMap:       stored.TitleMap,
		DescriptionMap: stored.DescriptionMap,
		RepositoryID:   repositoryID,
		Version:        stored.Version,
		Settings:       settings,
	}, nil
}

// ToConfigurable convierte un registro persistido a su forma externa.
func ToConfigurable(stored *repository.ProviderConfig) Configurable {
	v := stored.Version
	return Configurable{
		Authority:      stored.Authority,
		Provider:       stored.ProviderID,
		Realm:          stored.Realm,
		Name:           stored.Name,
		TitleMap:       stored.TitleMap,
		DescriptionMap: stored.DescriptionMap,
		RepositoryID:   stored.RepositoryID,
		Version:        &v,
		Settings:       stored.Settings,
	}
}

func (in Configurable) normalized() Configurable {
	in.Authority = strings.TrimSpace(in.Authority)
	in.Provider = strings.TrimSpace(in.Provider)
	in.Realm = strings.TrimSpace(in.Realm)
	in.RepositoryID = strings.TrimSpace(in.RepositoryID)
	if in.RepositoryID == "" {
		in.RepositoryID = in.Realm
	}
	if in.Name == "" {
		in.Name = in.Provider
	}
	return in
}

// Configurable convierte la config efectiva a su forma externa.
func (c Config[C]) Configurable(codec Codec[C]) (Configurable, error) {
	settings, err := codec.Encode(c.Settings)
	if err != nil {
		return Configurable{}, err
	}
	v := c.Version
	return Configurable{
		Authority:      c.Authority,
		Provider:       c.ProviderID,
		Realm:          c.Realm,
		Name:           c.Name,
		TitleMap:       c.TitleMap,
		DescriptionMap: c.DescriptionMap,
		RepositoryID:   c.RepositoryID,
		Version:        &v,
		Settings:       settings,
	}, nil
}
