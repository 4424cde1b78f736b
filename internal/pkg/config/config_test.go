package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("isstrack-test")
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if cfg.Cache.Backend != BackendValkey || cfg.Cache.Key != "iss_data" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Feed.Timeout != 30*time.Second || cfg.Feed.CacheTTL != 12*time.Hour || cfg.Feed.RefreshInterval != time.Hour {
		t.Errorf("feed durations = %+v", cfg.Feed)
	}
	if cfg.Telemetry.ServiceName != "isstrack-test" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ISSTRACK_SERVER_PORT", "9090")
	t.Setenv("ISSTRACK_CACHE_BACKEND", "memory")
	t.Setenv("ISSTRACK_FEED_REFRESH_INTERVAL", "15m")
	t.Setenv("ISSTRACK_GEOCODER_ENABLED", "false")

	cfg, err := Load("isstrack-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.Backend != BackendMemory {
		t.Errorf("cache.backend = %q", cfg.Cache.Backend)
	}
	if cfg.Feed.RefreshInterval != 15*time.Minute {
		t.Errorf("feed.refresh_interval = %v", cfg.Feed.RefreshInterval)
	}
	if cfg.Geocoder.Enabled {
		t.Error("geocoder should be disabled")
	}
}

func TestLoad_EnvInvalid(t *testing.T) {
	t.Setenv("ISSTRACK_CACHE_BACKEND", "redis")

	_, err := Load("isstrack-test")
	if err == nil || !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("expected cache.backend error, got %v", err)
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 30},
		Log:    LogConfig{Level: "info", Format: "json"},
		Feed: FeedConfig{
			URL:             "https://example.test/oem.xml",
			Timeout:         time.Second,
			MaxBodyBytes:    1 << 20,
			CacheTTL:        time.Hour,
			RefreshInterval: time.Minute,
		},
		Cache:    CacheConfig{Backend: BackendMemory, Key: "iss_data"},
		Temporal: TemporalConfig{TaskQueue: "q"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"feed url not http", func(c *Config) { c.Feed.URL = "ftp://example.test/x" }, "feed.url"},
		{"feed url empty", func(c *Config) { c.Feed.URL = "" }, "feed.url"},
		{"zero timeout", func(c *Config) { c.Feed.Timeout = 0 }, "feed.timeout"},
		{"refresh slower than ttl", func(c *Config) { c.Feed.RefreshInterval = 2 * time.Hour }, "feed.refresh_interval"},
		{"no ttl allows any interval", func(c *Config) { c.Feed.CacheTTL = 0; c.Feed.RefreshInterval = 48 * time.Hour }, ""},
		{"empty key", func(c *Config) { c.Cache.Key = "" }, "cache.key"},
		{"valkey without addr", func(c *Config) { c.Cache.Backend = BackendValkey }, "valkey.addr"},
		{"postgres without db", func(c *Config) { c.Cache.Backend = BackendPostgres }, "database.host"},
		{"nats without url", func(c *Config) { c.NATS.Enabled = true }, "nats.url"},
		{"geocoder zoom", func(c *Config) {
			c.Geocoder = GeocoderConfig{Enabled: true, BaseURL: "http://x", Timeout: time.Second, Zoom: 19}
		}, "geocoder.zoom"},
		{"telemetry without addr", func(c *Config) { c.Telemetry.Enabled = true }, "telemetry.otlp_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	c := validConfig()
	c.Server.Port = 0
	c.Cache.Key = ""
	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "cache.key") {
		t.Errorf("expected both problems reported: %v", err)
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "iss", Password: "p@ss", DBName: "isstrack", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://iss:p%40ss@db:5432/isstrack?sslmode=disable" {
		t.Errorf("DSN = %s", got)
	}
}
