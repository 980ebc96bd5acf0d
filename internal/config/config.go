package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Upstream data provider configuration
	Providers ProvidersConfig

	// Chain RPC configuration (token gate balance checks)
	Chain ChainConfig

	// Token gate configuration
	Gate GateConfig

	// Result cache configuration
	Cache CacheConfig

	// Redis configuration
	Redis RedisConfig

	// API server configuration
	API APIConfig

	// Logging configuration
	Log LogConfig
}

// ProvidersConfig holds upstream data provider settings
type ProvidersConfig struct {
	BalanceAPIURL  string        `envconfig:"BALANCE_API_URL" default:"https://public.zapper.xyz/graphql"`
	ProtocolAPIURL string        `envconfig:"PROTOCOL_API_URL" default:""`
	DefaultNetwork string        `envconfig:"DEFAULT_NETWORK" default:"BASE_MAINNET"`
	MinBalanceUSD  float64       `envconfig:"MIN_BALANCE_USD" default:"0.01"`
	MaxHoldings    int           `envconfig:"MAX_HOLDINGS" default:"30"`
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"3"`
	BackoffBase    time.Duration `envconfig:"FETCH_BACKOFF_BASE" default:"1s"`
}

// ChainConfig holds chain RPC connection settings
type ChainConfig struct {
	RPCURL         string        `envconfig:"CHAIN_RPC_URL" default:"https://mainnet.base.org"`
	RequestTimeout time.Duration `envconfig:"CHAIN_REQUEST_TIMEOUT" default:"10s"`
}

// GateConfig holds token gate settings
type GateConfig struct {
	MaxUsersPerRequest int `envconfig:"MAX_USERS_PER_REQUEST" default:"3"`

	// Creator coin contract checked for the requester minimum-balance gate.
	// The gate is disabled while MinCreatorCoinBalance is 0.
	CreatorCoinTokenAddress string  `envconfig:"CREATOR_COIN_TOKEN_ADDRESS" default:"0x838cc7f24a2696c796f90516c89369fbdcf7c575"`
	MinCreatorCoinBalance   float64 `envconfig:"MIN_CREATOR_COIN_BALANCE" default:"0"`
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	TTL time.Duration `envconfig:"CACHE_TTL" default:"60s"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"API_PORT" default:"8081"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    int           `envconfig:"API_RATE_LIMIT_RPS" default:"100"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
