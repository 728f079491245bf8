package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"SignalGuard/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Validation struct {
		// Stages that degrade to a neutral result instead of failing
		// the whole verdict: quality, statistical, ensemble, context,
		// performance.
		FailsafeStages []string `yaml:"failsafe_stages"`
		// Publish a conservative failsafe verdict when a consumed
		// signal cannot be validated at all.
		DegradedMode bool `yaml:"degraded_mode"`
		// Source of market indicators: candles, http, synthetic.
		IndicatorSource string `yaml:"indicator_source"`
		// Source of ensemble peers: peerbook, synthetic.
		PeerSource string `yaml:"peer_source"`
		// State backend for trackers and samples: memory, redis.
		StateBackend string        `yaml:"state_backend"`
		PeerTTL      time.Duration `yaml:"peer_ttl"`
	} `yaml:"validation"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		SignalsTopic  string   `yaml:"signals_topic"`
		VerdictsTopic string   `yaml:"verdicts_topic"`
		OutcomesTopic string   `yaml:"outcomes_topic"`
		// LogsTopic enables aggregated log shipping when set.
		LogsTopic string `yaml:"logs_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	PeerFeed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"peerfeed"`
	Indicators struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"indicators"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("PEERFEED_API_KEY"); v != "" {
		c.PeerFeed.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.PeerFeed.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_SIGNALS_TOPIC"); v != "" {
		c.Kafka.SignalsTopic = v
	}
	if v := os.Getenv("KAFKA_VERDICTS_TOPIC"); v != "" {
		c.Kafka.VerdictsTopic = v
	}
	if v := os.Getenv("KAFKA_LOGS_TOPIC"); v != "" {
		c.Kafka.LogsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)

	return c, nil
}

var validStages = map[string]bool{
	"quality":     true,
	"statistical": true,
	"ensemble":    true,
	"context":     true,
	"performance": true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	for _, s := range c.Validation.FailsafeStages {
		if !validStages[s] {
			return fmt.Errorf("validation.failsafe_stages: unknown stage '%s'", s)
		}
	}
	switch c.Validation.IndicatorSource {
	case "", "candles", "http", "synthetic":
	default:
		return fmt.Errorf("validation.indicator_source must be 'candles', 'http' or 'synthetic', got '%s'", c.Validation.IndicatorSource)
	}
	switch c.Validation.PeerSource {
	case "", "peerbook", "synthetic":
	default:
		return fmt.Errorf("validation.peer_source must be 'peerbook' or 'synthetic', got '%s'", c.Validation.PeerSource)
	}
	switch c.Validation.StateBackend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("validation.state_backend must be 'memory' or 'redis', got '%s'", c.Validation.StateBackend)
	}
	if c.Validation.StateBackend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("validation.state_backend is 'redis' but redis is disabled")
	}
	if c.Validation.PeerSource == "peerbook" && len(c.PeerFeed.Symbols) == 0 {
		return fmt.Errorf("peerfeed.symbols cannot be empty when peer_source is 'peerbook'")
	}
	return nil
}
