package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Environment names recognised by the CORS policy
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// KafkaProducerConfig defines configuration for the lifecycle event producer
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// BatchProcessorConfig defines how lifecycle events are buffered before publishing
type BatchProcessorConfig struct {
	BatchSize          int           `yaml:"batch_size"`
	BatchTimeout       time.Duration `yaml:"batch_timeout"`
	FlushChannelBuffer int           `yaml:"flush_channel_buffer"` // Buffer size for flush channel
}

// SetDefaults sets reasonable default values for batch processor configuration
func (c *BatchProcessorConfig) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 50
		fmt.Printf("Warning: events.batch_processor.batch_size not set, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 500 * time.Millisecond
		fmt.Printf("Warning: events.batch_processor.batch_timeout not set, defaulting to %v\n", c.BatchTimeout)
	}
	if c.FlushChannelBuffer == 0 {
		c.FlushChannelBuffer = 16
		fmt.Printf("Warning: events.batch_processor.flush_channel_buffer not set, defaulting to %d\n", c.FlushChannelBuffer)
	}
}

// EventsConfig controls publication of lifecycle events
type EventsConfig struct {
	Enabled        bool                 `yaml:"enabled"`
	KafkaProducer  KafkaProducerConfig  `yaml:"kafka_producer"`
	BatchProcessor BatchProcessorConfig `yaml:"batch_processor"`
}

// CORSConfig lists the origins allowed per environment
type CORSConfig struct {
	Origins map[string][]string `yaml:"origins"` // environment -> origins; "default" applies to unlisted environments
	Methods []string            `yaml:"methods"`
}

// SetDefaults fills in the deployed frontend and the local dev server
func (c *CORSConfig) SetDefaults() {
	if len(c.Origins) == 0 {
		c.Origins = map[string][]string{
			EnvProduction: {"https://baby-logger-1-435402.uk.r.appspot.com"},
			"default":     {"http://localhost:3004"},
		}
		fmt.Printf("Warning: cors.origins not set, defaulting to %v\n", c.Origins)
	}
	if len(c.Methods) == 0 {
		c.Methods = []string{"GET", "POST", "PUT", "DELETE"}
		fmt.Printf("Warning: cors.methods not set, defaulting to %v\n", c.Methods)
	}
}

// AllowedOrigins returns the origins for the given environment
func (c *CORSConfig) AllowedOrigins(environment string) []string {
	if origins, ok := c.Origins[environment]; ok {
		return origins
	}
	return c.Origins["default"]
}

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// SetDefaults sets the HTTP server limits that were left empty
func (c *HttpServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

// ServerConfig defines all configuration required for the API server
type ServerConfig struct {
	Environment    string `yaml:"environment"`
	HttpListenAddr string `yaml:"http_listen_addr"`
	GrpcListenAddr string `yaml:"grpc_listen_addr"`
	StaticDir      string `yaml:"static_dir"` // Prebuilt frontend bundle, empty to disable
	HealthPath     string `yaml:"health_path"`

	Database   DatabaseConfig   `yaml:"database"`
	CORS       CORSConfig       `yaml:"cors"`
	Events     EventsConfig     `yaml:"events"`
	HttpServer HttpServerConfig `yaml:"http_server"`
}

// ApplyEnv overrides file settings with the process environment:
// PORT, DATABASE_URL and APP_ENV.
func (c *ServerConfig) ApplyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.HttpListenAddr = ":" + port
	}
	if dsn := getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if env := getenv("APP_ENV"); env != "" {
		c.Environment = env
	}
}

// SetDefaults sets defaults for every nested section
func (c *ServerConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
		fmt.Printf("Warning: environment not set, defaulting to %s\n", c.Environment)
	}
	if c.HttpListenAddr == "" && c.GrpcListenAddr == "" {
		c.HttpListenAddr = ":8080"
		fmt.Printf("Warning: http_listen_addr not set, defaulting to %s\n", c.HttpListenAddr)
	}
	if c.HealthPath == "" {
		c.HealthPath = "/health"
	}
	c.Database.SetDefaults()
	c.CORS.SetDefaults()
	c.HttpServer.SetDefaults()
	c.Events.BatchProcessor.SetDefaults()
}

// Validate checks the settings that have no usable default
func (c *ServerConfig) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database configuration error: %w", err)
	}
	if c.Events.Enabled {
		if len(c.Events.KafkaProducer.Brokers) == 0 || c.Events.KafkaProducer.Topic == "" {
			return fmt.Errorf("events configuration error: kafka_producer brokers and topic are required when events are enabled")
		}
	}
	return nil
}

// LoadServerConfig loads API server configuration from the specified YAML file path
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config file '%s': %w", path, err)
	}
	return ParseServerConfig(data, os.Getenv)
}

// ParseServerConfig parses YAML, applies environment overrides and defaults, then validates
func ParseServerConfig(data []byte, getenv func(string) string) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server YAML config file: %w", err)
	}

	cfg.ApplyEnv(getenv)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
