package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Zone      ZoneConfig      `mapstructure:"zone"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Push      PushConfig      `mapstructure:"push"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// ZoneConfig defines the allowed-area rectangle by its center and half
// sizes in meters.
type ZoneConfig struct {
	CenterLat    float64 `mapstructure:"center_lat"`
	CenterLon    float64 `mapstructure:"center_lon"`
	HalfWidthM   float64 `mapstructure:"half_width_m"`
	HalfHeightM  float64 `mapstructure:"half_height_m"`
	StaleMinutes int     `mapstructure:"stale_minutes"`
}

// GatewayConfig drives the caching asset gateway in front of the app shell.
type GatewayConfig struct {
	Version     string   `mapstructure:"version"`
	UpstreamURL string   `mapstructure:"upstream_url"`
	Origin      string   `mapstructure:"origin"`
	ShellPath   string   `mapstructure:"shell_path"`
	Precache    []string `mapstructure:"precache"`
}

// PushConfig carries the VAPID key pair for WebPush delivery.
type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subject         string `mapstructure:"subject"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults. Zone defaults cover the Lefkada operating area.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "boatzone")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "boatzone")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("zone.center_lat", 38.715482)
	v.SetDefault("zone.center_lon", 20.755199)
	v.SetDefault("zone.half_width_m", 4500.0)
	v.SetDefault("zone.half_height_m", 8500.0)
	v.SetDefault("zone.stale_minutes", 10)
	v.SetDefault("gateway.version", "boatzone-static-v1.4")
	v.SetDefault("gateway.upstream_url", "http://localhost:3000")
	v.SetDefault("gateway.origin", "")
	v.SetDefault("gateway.shell_path", "/navigator.html")
	v.SetDefault("gateway.precache", []string{})
	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.subject", "mailto:ops@boatzone.example")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: BOATZONE_DATABASE_HOST → database.host
	v.SetEnvPrefix("BOATZONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Zone.CenterLat < -90 || c.Zone.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("zone.center_lat must be -90..90, got %f", c.Zone.CenterLat))
	}
	if c.Zone.CenterLon < -180 || c.Zone.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("zone.center_lon must be -180..180, got %f", c.Zone.CenterLon))
	}
	if c.Zone.HalfWidthM <= 0 || c.Zone.HalfHeightM <= 0 {
		errs = append(errs, "zone half sizes must be positive")
	}
	if c.Gateway.Version == "" {
		errs = append(errs, "gateway.version is required")
	}
	if c.Gateway.UpstreamURL == "" {
		errs = append(errs, "gateway.upstream_url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
