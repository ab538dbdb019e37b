package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // optional; guards all API routes when set
}

// DatabaseConfig selects the server-side relational store. The sqlite
// driver needs only Path; the postgres driver uses the connection fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "postgres"
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// StorageConfig selects the client-side storage provider: "local" for the
// embedded store, "api" for the REST backend.
type StorageConfig struct {
	Mode    string `yaml:"mode"`
	APIURL  string `yaml:"api_url"`
	APIKey  string `yaml:"api_key"` // sent as X-API-Key in api mode
	DataDir string `yaml:"data_dir"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// MigrateURL returns the golang-migrate database URL for the active driver.
func (d DatabaseConfig) MigrateURL() string {
	if d.Driver == "postgres" {
		return d.DSN()
	}
	return "sqlite://" + d.Path
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix OCCAM_ and underscore-separated paths:
//
//	OCCAM_SERVER_HOST, OCCAM_SERVER_PORT, OCCAM_SERVER_API_KEY,
//	OCCAM_DB_DRIVER, OCCAM_DB_PATH, OCCAM_DB_HOST, OCCAM_DB_PORT,
//	OCCAM_DB_NAME, OCCAM_DB_USER, OCCAM_DB_PASSWORD, OCCAM_DB_SSLMODE,
//	OCCAM_STORAGE_MODE, OCCAM_STORAGE_API_URL, OCCAM_STORAGE_API_KEY,
//	OCCAM_STORAGE_DATA_DIR,
//	OCCAM_TS_HOSTNAME, OCCAM_TS_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server:   ServerConfig{Port: 3001},
		Database: DatabaseConfig{Driver: "sqlite", Path: "data/occam.db"},
		Storage:  StorageConfig{Mode: "local", DataDir: "data"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OCCAM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OCCAM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OCCAM_SERVER_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("OCCAM_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("OCCAM_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("OCCAM_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("OCCAM_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("OCCAM_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("OCCAM_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("OCCAM_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("OCCAM_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("OCCAM_STORAGE_MODE"); v != "" {
		cfg.Storage.Mode = v
	}
	if v := os.Getenv("OCCAM_STORAGE_API_URL"); v != "" {
		cfg.Storage.APIURL = v
	}
	if v := os.Getenv("OCCAM_STORAGE_API_KEY"); v != "" {
		cfg.Storage.APIKey = v
	}
	if v := os.Getenv("OCCAM_STORAGE_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("OCCAM_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("OCCAM_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for the postgres driver")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required for the postgres driver")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for the postgres driver")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	switch c.Storage.Mode {
	case "local":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required in local mode")
		}
	case "api":
		if c.Storage.APIURL == "" {
			return fmt.Errorf("storage.api_url is required in api mode")
		}
	default:
		return fmt.Errorf("storage.mode must be local or api, got %q", c.Storage.Mode)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	return nil
}
