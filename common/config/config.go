package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tradepost/go-mediation/models"
)

type StoreBackend string

const (
	StoreBackend_Memory   StoreBackend = "memory"
	StoreBackend_Sqlite   StoreBackend = "sqlite"
	StoreBackend_Postgres StoreBackend = "postgres"
	StoreBackend_DynamoDb StoreBackend = "dynamodb"
)

// Config is the mediator's runtime configuration. Variable names match the Env_* constants in the root package.
type Config struct {
	Env          string       `env:"ENV"           envDefault:"dev"`
	LogLevel     string       `env:"LOG_LEVEL"`
	HttpAddr     string       `env:"HTTP_ADDR"     envDefault:":8080"`
	StoreBackend StoreBackend `env:"STORE_BACKEND" envDefault:"memory"`
	SqlitePath   string       `env:"SQLITE_PATH"   envDefault:"mediation.db"`
	DatabaseUrl  string       `env:"DATABASE_URL"`

	AwsRegion     string `env:"AWS_REGION"      envDefault:"us-east-1"`
	AwsEndpoint   string `env:"AWS_ENDPOINT"`
	DbAwsEndpoint string `env:"DB_AWS_ENDPOINT"`

	EventsQueueEnabled   bool   `env:"EVENTS_QUEUE_ENABLED"`
	EventQueueDepth      int    `env:"EVENT_QUEUE_DEPTH"`
	DiscordAlertWebhook  string `env:"DISCORD_ALERT_WEBHOOK"`
	DiscordEventsWebhook string `env:"DISCORD_EVENTS_WEBHOOK"`
	DiscordTestWebhook   string `env:"DISCORD_TEST_WEBHOOK"`
	IpfsApiUrl           string `env:"IPFS_API_URL"`
	IpfsPubsubTopic      string `env:"IPFS_PUBSUB_TOPIC"`

	MediatorStaff   []string `env:"MEDIATOR_STAFF"                      envSeparator:","`
	MetricsEndpoint string   `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads envFile into the process environment, if one is given, and then parses and validates the configuration.
// Variables already present in the environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if len(envFile) > 0 {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	cfg := new(Config)
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.EventQueueDepth == 0 {
		cfg.EventQueueDepth = models.DefaultEventQueueDepth
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackend_Memory, StoreBackend_DynamoDb:
	case StoreBackend_Sqlite:
		if len(c.SqlitePath) == 0 {
			return fmt.Errorf("config: SQLITE_PATH is required for the %s store", c.StoreBackend)
		}
	case StoreBackend_Postgres:
		if len(c.DatabaseUrl) == 0 {
			return fmt.Errorf("config: DATABASE_URL is required for the %s store", c.StoreBackend)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	if c.EventQueueDepth <= 0 {
		return fmt.Errorf("config: EVENT_QUEUE_DEPTH must be positive, got %d", c.EventQueueDepth)
	}
	return nil
}

// PubsubTopicPrefix is the IPFS pubsub topic prefix transition events are announced under.
func (c *Config) PubsubTopicPrefix() string {
	if len(c.IpfsPubsubTopic) > 0 {
		return c.IpfsPubsubTopic
	}
	return "/mediation/" + c.Env
}
