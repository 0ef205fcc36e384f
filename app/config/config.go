// Package config loads runtime settings from defaults, an optional YAML file and the
// environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix              = "LOSTFOUND"
	DefaultConfigFile      = "lostfound.yaml"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultSessionTTL      = 24 * time.Hour
)

type Config struct {
	DatabasePath    string        `yaml:"databasePath"    envconfig:"DATABASE_PATH"`
	BackupDir       string        `yaml:"backupDir"       envconfig:"BACKUP_DIR"`
	SearchIndexPath string        `yaml:"searchIndexPath" envconfig:"SEARCH_INDEX_PATH"`
	BindAddr        string        `yaml:"bindAddr"        envconfig:"BIND_ADDR"`
	Port            uint          `yaml:"port"            envconfig:"PORT"`
	SessionSecret   string        `yaml:"sessionSecret"   envconfig:"SESSION_SECRET"`
	SessionTTL      time.Duration `yaml:"sessionTTL"      envconfig:"SESSION_TTL"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT"`
	Debug           bool          `yaml:"debug"           envconfig:"DEBUG"`
	MetricsEnabled  bool          `yaml:"metricsEnabled"  envconfig:"METRICS_ENABLED"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DatabasePath:    filepath.Join("data", "badger"),
		BackupDir:       filepath.Join("data", "backups"),
		SearchIndexPath: filepath.Join("data", "search.bleve"),
		BindAddr:        "0.0.0.0",
		Port:            8080,
		SessionTTL:      DefaultSessionTTL,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  true,
	}
}

// Load applies configFile (if set, or lostfound.yaml when present) and then LOSTFOUND_*
// environment variables over the defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configFile = DefaultConfigFile
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return cfg, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddr, strconv.FormatUint(uint64(c.Port), 10))
}

// ValidateServe checks the settings the HTTP server depends on.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("databasePath is required"))
	}
	if c.Port == 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("sessionSecret must be at least 16 bytes"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("sessionTTL must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdownTimeout must be positive"))
	}
	return errors.Join(errs...)
}
