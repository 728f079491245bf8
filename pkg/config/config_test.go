package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
environment: development
server:
  port: 8080
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 15s
validation:
  failsafe_stages: [ensemble, context]
  degraded_mode: true
  indicator_source: candles
  peer_source: peerbook
  state_backend: memory
  peer_ttl: 5m
kafka:
  brokers: [localhost:9092]
  signals_topic: signals
  verdicts_topic: verdicts
  outcomes_topic: outcomes
peerfeed:
  websocket_url: wss://example.com/stream
  symbols: [AAPL, MSFT]
  reconnect_delay: 5s
  ping_interval: 30s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Environment != "development" || cfg.Server.Port != 8080 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Validation.FailsafeStages) != 2 || cfg.Validation.FailsafeStages[0] != "ensemble" {
		t.Fatalf("unexpected failsafe stages: %v", cfg.Validation.FailsafeStages)
	}
	if !cfg.Validation.DegradedMode || cfg.Validation.IndicatorSource != "candles" {
		t.Fatalf("unexpected validation config: %+v", cfg.Validation)
	}
	if len(cfg.PeerFeed.Symbols) != 2 {
		t.Fatalf("unexpected peerfeed symbols: %v", cfg.PeerFeed.Symbols)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing environment", func(c *Config) { c.Environment = "" }, "environment"},
		{"unknown failsafe stage", func(c *Config) { c.Validation.FailsafeStages = []string{"sentiment"} }, "unknown stage"},
		{"bad indicator source", func(c *Config) { c.Validation.IndicatorSource = "astrology" }, "indicator_source"},
		{"bad peer source", func(c *Config) { c.Validation.PeerSource = "oracle" }, "peer_source"},
		{"bad state backend", func(c *Config) { c.Validation.StateBackend = "etcd" }, "state_backend"},
		{"redis backend without redis", func(c *Config) {
			c.Validation.StateBackend = "redis"
			c.Redis.Enabled = false
		}, "redis is disabled"},
		{"peerbook without symbols", func(c *Config) {
			c.Validation.PeerSource = "peerbook"
			c.PeerFeed.Symbols = nil
		}, "symbols"},
	}
	for _, tc := range cases {
		cfg, err := Load(writeConfig(t, sampleYAML))
		if err != nil {
			t.Fatalf("%s: load: %v", tc.name, err)
		}
		tc.mutate(cfg)
		err = cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PEERFEED_API_KEY", "test-key")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SIGNALS_TOPIC", "signals-override")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_LOGS_TOPIC", "logs-aggregated")
	t.Setenv("PORT", " 9090 ")

	cfg, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PeerFeed.APIKey != "test-key" {
		t.Fatalf("api key override missing: %q", cfg.PeerFeed.APIKey)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker2:9092" {
		t.Fatalf("broker override missing: %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.SignalsTopic != "signals-override" {
		t.Fatalf("topic override missing: %q", cfg.Kafka.SignalsTopic)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis override missing: %+v", cfg.Redis)
	}
	if cfg.Kafka.LogsTopic != "logs-aggregated" {
		t.Fatalf("logs topic override missing: %q", cfg.Kafka.LogsTopic)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port override missing: %d", cfg.Server.Port)
	}
}
