// Package config carga la configuración del broker desde YAML y la pisa con
// variables de entorno.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns int `yaml:"max_open_conns"`
			MaxIdleConns int `yaml:"max_idle_conns"`
		} `yaml:"postgres"`

		// Configs de proveedores en un store aparte (ej: "fs").
		Configs struct {
			Driver string `yaml:"driver"`
			FSRoot string `yaml:"fs_root"`
		} `yaml:"configs"`

		// Store de atributos aparte (ej: "redis").
		Attributes struct {
			Driver string `yaml:"driver"`
			Redis  struct {
				Addr     string `yaml:"addr"`
				DB       int    `yaml:"db"`
				Password string `yaml:"password"`
			} `yaml:"redis"`
		} `yaml:"attributes"`
	} `yaml:"storage"`

	Registry struct {
		MaxSize int           `yaml:"max_size"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"registry"`

	Security struct {
		// SecretBoxKey base64(32 bytes). Si está, los secretos de settings OIDC
		// se guardan cifrados.
		SecretBoxKey string `yaml:"secretbox_key"`
	} `yaml:"security"`

	Bootstrap struct {
		// Archivo YAML con proveedores a registrar al arrancar.
		File string `yaml:"file"`
	} `yaml:"bootstrap"`
}

// Load lee el archivo (si path no está vacío), aplica env y defaults, y valida.
// Un .env en el directorio actual se carga antes de leer el entorno.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Configs.FSRoot == "" {
		c.Storage.Configs.FSRoot = "data"
	}
	if c.Registry.MaxSize == 0 {
		c.Registry.MaxSize = 100
	}
	if c.Registry.TTL == 0 {
		c.Registry.TTL = time.Hour
	}
}

// Validate chequea combinaciones imposibles.
func (c *Config) Validate() error {
	var errs []error
	switch c.App.Env {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("app.env must be dev or prod, got %q", c.App.Env))
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "memory", "mem":
	case "postgres", "postgresql", "pg":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not a main store", c.Storage.Driver))
	}
	if c.Registry.MaxSize < 0 {
		errs = append(errs, errors.New("registry.max_size must be positive"))
	}
	if c.Registry.TTL < 0 {
		errs = append(errs, errors.New("registry.ttl must be positive"))
	}
	return errors.Join(errs...)
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CONFIGS_DRIVER"); ok {
		c.Storage.Configs.Driver = v
	}
	if v, ok := getEnvStr("CONFIGS_FS_ROOT"); ok {
		c.Storage.Configs.FSRoot = v
	}
	if v, ok := getEnvStr("ATTRIBUTES_DRIVER"); ok {
		c.Storage.Attributes.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Storage.Attributes.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Storage.Attributes.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Storage.Attributes.Redis.Password = v
	}

	// REGISTRY
	if v, ok := getEnvInt("REGISTRY_MAX_SIZE"); ok {
		c.Registry.MaxSize = v
	}
	if v, ok := getEnvDur("REGISTRY_TTL"); ok {
		c.Registry.TTL = v
	}

	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretBoxKey = v
	}

	if v, ok := getEnvStr("BOOTSTRAP_FILE"); ok {
		c.Bootstrap.File = v
	}
}
