package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// los ids terminan siendo nombres de archivo
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// providerFile es el formato en disco.
type providerFile struct {
	Authority      string            `yaml:"authority"`
	ProviderID     string            `yaml:"provider"`
	Realm          string            `yaml:"realm"`
	Name           string            `yaml:"name,omitempty"`
	TitleMap       map[string]string `yaml:"titleMap,omitempty"`
	DescriptionMap map[string]string `yaml:"descriptionMap,omitempty"`
	RepositoryID   string            `yaml:"repositoryId,omitempty"`
	Version        int               `yaml:"version"`
	Settings       map[string]any    `yaml:"settings,omitempty"`
	CreatedAt      time.Time         `yaml:"createdAt"`
	UpdatedAt      time.Time         `yaml:"updatedAt"`
}

type configRepo struct {
	conn *Connection
	dir  string
}

func (r *configRepo) path(providerID string) (string, error) {
	if !validID.MatchString(providerID) {
		return "", fmt.Errorf("%w: invalid provider id %q", repository.ErrInvalidInput, providerID)
	}
	return filepath.Join(r.dir, providerID+".yaml"), nil
}

func (r *configRepo) FindByProviderID(ctx context.Context, providerID string) (*repository.ProviderConfig, error) {
	path, err := r.path(providerID)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	r.conn.mu.RLock()
	defer r.conn.mu.RUnlock()
	return readConfig(path)
}

func (r *configRepo) FindByRealm(ctx context.Context, authority, realm string) ([]repository.ProviderConfig, error) {
	r.conn.mu.RLock()
	defer r.conn.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []repository.ProviderConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read providers dir: %w", err)
	}
	out := []repository.ProviderConfig{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		c, err := readConfig(filepath.Join(r.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if c.Authority == authority && c.Realm == realm {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out, nil
}

func (r *configRepo) Upsert(ctx context.Context, cfg *repository.ProviderConfig) error {
	path, err := r.path(cfg.ProviderID)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(providerFile{
		Authority:      cfg.Authority,
		ProviderID:     cfg.ProviderID,
		Realm:          cfg.Realm,
		Name:           cfg.Name,
		TitleMap:       cfg.TitleMap,
		DescriptionMap: cfg.DescriptionMap,
		RepositoryID:   cfg.RepositoryID,
		Version:        cfg.Version,
		Settings:       cfg.Settings,
		CreatedAt:      cfg.CreatedAt.UTC(),
		UpdatedAt:      cfg.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("fs: marshal provider %s: %w", cfg.ProviderID, err)
	}

	r.conn.mu.Lock()
	defer r.conn.mu.Unlock()
	prev, err := readConfig(path)
	switch {
	case repository.IsNotFound(err):
	case err != nil:
		return err
	case prev.Realm != cfg.Realm || prev.Authority != cfg.Authority:
		return repository.ErrProviderIDTaken
	}
	return writeFileAtomic(path, data, 0o600)
}

func (r *configRepo) Remove(ctx context.Context, providerID string) error {
	path, err := r.path(providerID)
	if err != nil {
		return nil
	}
	r.conn.mu.Lock()
	defer r.conn.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fs: remove provider %s: %w", providerID, err)
	}
	return nil
}

func readConfig(path string) (*repository.ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read %s: %w", path, err)
	}
	var f providerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fs: parse %s: %w", path, err)
	}
	return &repository.ProviderConfig{
		Authority:      f.Authority,
		ProviderID:     f.ProviderID,
		Realm:          f.Realm,
		Name:           f.Name,
		TitleMap:       f.TitleMap,
		DescriptionMap: f.DescriptionMap,
		RepositoryID:   f.RepositoryID,
		Version:        f.Version,
		Settings:       f.Settings,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}, nil
}
