package config

import (
	"fmt"
	"time"

	"github.com/gosidekick/goconfig"
)

// Auxiliary routes served next to the relay
const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
	StatsPath   = "/stats"
)

type Configs struct {
	ApplicationConfig ApplicationConfig
	ServerConfig      ServerConfig
}

type ApplicationConfig struct {
	LogLevel               string `cfg:"log_level" cfgDefault:"info"`
	SecretToken            string `cfg:"secret_token"` // empty means every caller is accepted
	TelegramBaseURL        string `cfg:"telegram_base_url" cfgDefault:"https://api.telegram.org"`
	UpstreamTimeoutSeconds int    `cfg:"upstream_timeout_seconds" cfgDefault:"0"`
	MetricsDBPath          string `cfg:"metrics_db_path"` // empty (default) disables the sqlite outcome log and /stats
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port                int    `cfg:"port" cfgDefault:"8080"`
	RelayPath           string `cfg:"relay_path" cfgDefault:"/"`
	ReadTimeoutSeconds  int    `cfg:"read_timeout_seconds" cfgDefault:"15"`
	WriteTimeoutSeconds int    `cfg:"write_timeout_seconds" cfgDefault:"30"`
}

// LoadConfig loads configuration from environment variables
// and do validations to them
func LoadConfig() (*Configs, error) {
	var (
		appCfg    ApplicationConfig
		serverCfg ServerConfig
	)
	err := goconfig.Parse(&appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse application config: %w", err)
	}
	err = goconfig.Parse(&serverCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	cfg := &Configs{
		ApplicationConfig: appCfg,
		ServerConfig:      serverCfg,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values goconfig cannot express through tags.
func (c *Configs) Validate() error {
	if c.ApplicationConfig.UpstreamTimeoutSeconds < 0 {
		return fmt.Errorf("upstream_timeout_seconds cannot be negative")
	}
	if c.ServerConfig.Port <= 0 || c.ServerConfig.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.ServerConfig.Port)
	}
	if c.ServerConfig.RelayPath == "" || c.ServerConfig.RelayPath[0] != '/' {
		return fmt.Errorf("relay_path must start with '/': %q", c.ServerConfig.RelayPath)
	}
	switch c.ServerConfig.RelayPath {
	case HealthPath, MetricsPath, StatsPath:
		return fmt.Errorf("relay_path %q is reserved", c.ServerConfig.RelayPath)
	}
	return nil
}

// IsOpenRelay reports whether no shared secret is configured.
func (c *Configs) IsOpenRelay() bool {
	return c.ApplicationConfig.SecretToken == ""
}

// MetricsDBEnabled reports whether relay outcomes are persisted to sqlite.
// It is off unless METRICS_DB_PATH is set.
func (c *Configs) MetricsDBEnabled() bool {
	return c.ApplicationConfig.MetricsDBPath != ""
}

func (c *Configs) UpstreamTimeout() time.Duration {
	return time.Duration(c.ApplicationConfig.UpstreamTimeoutSeconds) * time.Second
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}
