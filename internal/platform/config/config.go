// Package config loads server configuration from CERTLEDGER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"certledger/pkg/domain"
)

// EnvPrefix is prepended to every variable, e.g. CERTLEDGER_ADDR.
const EnvPrefix = "certledger"

// devSigningKey is only accepted outside production.
const devSigningKey = "dev-secret-key-change-in-production"

// Server captures everything cmd/server needs.
type Server struct {
	Addr            string        `envconfig:"ADDR"             default:":8080"`
	Environment     string        `envconfig:"ENV"              default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL"        default:"info"`
	OwnerAddress    string        `envconfig:"OWNER_ADDRESS"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT"  default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	SeedFile        string        `envconfig:"SEED_FILE"`

	// Sections are loaded with the same flat prefix, e.g. CERTLEDGER_KAFKA_BROKERS.
	Token    TokenConfig    `ignored:"true"`
	Database DatabaseConfig `ignored:"true"`
	Kafka    KafkaConfig    `ignored:"true"`
	Redis    RedisConfig    `ignored:"true"`
	Metadata MetadataConfig `ignored:"true"`
}

// TokenConfig configures caller bearer tokens.
type TokenConfig struct {
	SigningKey string        `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	Issuer     string        `envconfig:"JWT_ISSUER"      default:"certledger"`
	Audience   string        `envconfig:"JWT_AUDIENCE"    default:"certledger-api"`
	TTL        time.Duration `envconfig:"TOKEN_TTL"       default:"15m"`
}

// DatabaseConfig selects Postgres. An empty URL keeps the registry in memory.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `envconfig:"DATABASE_MAX_OPEN_CONNS"    default:"25"`
	MaxIdleConns    int           `envconfig:"DATABASE_MAX_IDLE_CONNS"    default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"5m"`
}

// KafkaConfig enables the event publisher when Brokers is set.
type KafkaConfig struct {
	Brokers         string        `envconfig:"KAFKA_BROKERS"`
	Topic           string        `envconfig:"KAFKA_TOPIC"            default:"certledger.registry.events"`
	Acks            string        `envconfig:"KAFKA_ACKS"             default:"all"`
	Retries         int           `envconfig:"KAFKA_RETRIES"          default:"3"`
	DeliveryTimeout time.Duration `envconfig:"KAFKA_DELIVERY_TIMEOUT" default:"30s"`
	PollInterval    time.Duration `envconfig:"KAFKA_POLL_INTERVAL"    default:"250ms"`
	BatchSize       int           `envconfig:"KAFKA_BATCH_SIZE"       default:"100"`
}

// RedisConfig enables the metadata cache when URL is set.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE"      default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT"   default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT"   default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT"  default:"3s"`
	CacheTTL     time.Duration `envconfig:"METADATA_CACHE_TTL"   default:"24h"`
}

// MetadataConfig selects the blob store. Without a Pinata JWT or key pair,
// metadata is kept in memory.
type MetadataConfig struct {
	PinataAPIURL    string        `envconfig:"PINATA_API_URL"    default:"https://api.pinata.cloud"`
	PinataGateway   string        `envconfig:"PINATA_GATEWAY"    default:"https://gateway.pinata.cloud/ipfs"`
	PinataJWT       string        `envconfig:"PINATA_JWT"`
	PinataAPIKey    string        `envconfig:"PINATA_API_KEY"`
	PinataAPISecret string        `envconfig:"PINATA_API_SECRET"`
	Timeout         time.Duration `envconfig:"PINATA_TIMEOUT"    default:"15s"`
}

// PinningEnabled reports whether Pinata credentials are configured.
func (m MetadataConfig) PinningEnabled() bool {
	return m.PinataJWT != "" || (m.PinataAPIKey != "" && m.PinataAPISecret != "")
}

// FromEnv builds the Server config from the environment and validates it.
func FromEnv() (Server, error) {
	var cfg Server
	specs := []any{&cfg, &cfg.Token, &cfg.Database, &cfg.Kafka, &cfg.Redis, &cfg.Metadata}
	for _, spec := range specs {
		if err := envconfig.Process(EnvPrefix, spec); err != nil {
			return Server{}, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// TokenFromEnv loads only the token section, for tools that mint caller tokens
// without running the server.
func TokenFromEnv() (TokenConfig, error) {
	var cfg TokenConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return TokenConfig{}, fmt.Errorf("load token config: %w", err)
	}
	return cfg, nil
}

// KafkaFromEnv loads only the Kafka section.
func KafkaFromEnv() (KafkaConfig, error) {
	var cfg KafkaConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return KafkaConfig{}, fmt.Errorf("load kafka config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production safeguards.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// Owner parses OwnerAddress.
func (s Server) Owner() (domain.Address, error) {
	return domain.ParseAddress(s.OwnerAddress)
}

func (s Server) Validate() error {
	if _, err := s.Owner(); err != nil {
		return fmt.Errorf("CERTLEDGER_OWNER_ADDRESS: %w", err)
	}
	if s.IsProduction() && s.Token.SigningKey == devSigningKey {
		return fmt.Errorf("CERTLEDGER_JWT_SIGNING_KEY must be set in production")
	}
	if len(s.Token.SigningKey) < 16 {
		return fmt.Errorf("CERTLEDGER_JWT_SIGNING_KEY must be at least 16 bytes")
	}
	if s.Token.TTL <= 0 {
		return fmt.Errorf("CERTLEDGER_TOKEN_TTL must be positive")
	}
	return nil
}
