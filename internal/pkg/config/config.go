package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	Map       MapConfig       `mapstructure:"map"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Poller    PollerConfig    `mapstructure:"poller"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// APIConfig points at the sighting data API.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	PredictedPath  string `mapstructure:"predicted_path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`

	BreakerMinRequests  uint32  `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64 `mapstructure:"breaker_failure_ratio"`
	BreakerOpenSeconds  int     `mapstructure:"breaker_open_seconds"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// MapConfig holds the defaults every map session starts from.
type MapConfig struct {
	Lat               float64 `mapstructure:"lat"`
	Lng               float64 `mapstructure:"lng"`
	Zoom              int     `mapstructure:"zoom"`
	TimeStart         int     `mapstructure:"time_start"`
	TimeEnd           int     `mapstructure:"time_end"`
	TileLayerURL      string  `mapstructure:"tile_layer_url"`
	Attribution       string  `mapstructure:"attribution"`
	MaxZoom           int     `mapstructure:"max_zoom"`
	AccumulateMarkers bool    `mapstructure:"accumulate_markers"`
	ViewportWidth     int     `mapstructure:"viewport_width"`
	ViewportHeight    int     `mapstructure:"viewport_height"`
}

func (m MapConfig) Center() domain.Coordinates {
	return domain.Coordinates{Lat: m.Lat, Lng: m.Lng}
}

func (m MapConfig) TimeRange() domain.TimeRange {
	return domain.TimeRange{Start: m.TimeStart, End: m.TimeEnd}
}

func (m MapConfig) TileLayer() domain.TileLayer {
	return domain.TileLayer{
		URL:     m.TileLayerURL,
		Options: domain.TileLayerOptions{Attribution: m.Attribution, MaxZoom: m.MaxZoom},
	}
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Enabled   bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// PollerConfig drives the sightings-updated announcer.
type PollerConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
	WindowSeconds   int `mapstructure:"window_seconds"`
}

func (p PollerConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// Window is the trailing time range each poll inspects.
func (p PollerConfig) Window() domain.TimeRange {
	return domain.TimeRange{Start: -p.WindowSeconds, End: 0}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("api.base_url", "http://pokedata.c4e3f8c7.svc.dockerapp.io:65014/api/pokemon")
	v.SetDefault("api.predicted_path", "/sighting/coordinates")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("api.breaker_min_requests", 10)
	v.SetDefault("api.breaker_failure_ratio", 0.6)
	v.SetDefault("api.breaker_open_seconds", 30)
	v.SetDefault("map.lat", 48.1351)
	v.SetDefault("map.lng", 11.582)
	v.SetDefault("map.zoom", 13)
	v.SetDefault("map.time_start", -600)
	v.SetDefault("map.time_end", -1)
	v.SetDefault("map.tile_layer_url", domain.DefaultTileLayerURL)
	v.SetDefault("map.attribution", domain.DefaultAttribution)
	v.SetDefault("map.max_zoom", domain.DefaultMaxZoom)
	v.SetDefault("map.accumulate_markers", false)
	v.SetDefault("map.viewport_width", 1024)
	v.SetDefault("map.viewport_height", 768)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.key_prefix", "pokemap:")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("poller.interval_seconds", 30)
	v.SetDefault("poller.window_seconds", 300)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: POKEMAP_MAP_ZOOM → map.zoom
	v.SetEnvPrefix("POKEMAP")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}
	if c.API.TimeoutSeconds <= 0 {
		errs = append(errs, "api.timeout_seconds must be positive")
	}
	if c.API.BreakerFailureRatio <= 0 || c.API.BreakerFailureRatio > 1 {
		errs = append(errs, fmt.Sprintf("api.breaker_failure_ratio must be in (0,1], got %v", c.API.BreakerFailureRatio))
	}
	if err := c.Map.Center().Validate(); err != nil {
		errs = append(errs, "map center: "+err.Error())
	}
	if c.Map.Zoom <= 0 {
		errs = append(errs, fmt.Sprintf("map.zoom must be positive, got %d", c.Map.Zoom))
	}
	if c.Map.MaxZoom > 0 && c.Map.Zoom > c.Map.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.zoom %d exceeds map.max_zoom %d", c.Map.Zoom, c.Map.MaxZoom))
	}
	if c.Map.TimeEnd < c.Map.TimeStart {
		errs = append(errs, fmt.Sprintf("map.time_end %d precedes map.time_start %d", c.Map.TimeEnd, c.Map.TimeStart))
	}
	if c.Poller.IntervalSeconds < 0 || c.Poller.WindowSeconds < 0 {
		errs = append(errs, "poller intervals must not be negative")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
