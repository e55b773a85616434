// Package config loads service settings from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string     `mapstructure:"SERVER_PORT"`
	LogLevel   slog.Level `mapstructure:"-"`

	StoreDriver                   string `mapstructure:"STORE_DRIVER"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	DynamoDBTransactionsTableName string `mapstructure:"DYNAMODB_TRANSACTIONS_TABLE_NAME"`
	DynamoDBUsersTableName        string `mapstructure:"DYNAMODB_USERS_TABLE_NAME"`
	DynamoDBCountersTableName     string `mapstructure:"DYNAMODB_COUNTERS_TABLE_NAME"`

	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	CredentialTTL     time.Duration `mapstructure:"CREDENTIAL_TTL"`
	AdminTellerNumber int           `mapstructure:"ADMIN_TELLER_NUMBER"`
	StationAddresses  string        `mapstructure:"STATION_ADDRESSES"`

	CORSAllowedOrigins []string `mapstructure:"-"`

	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	LoginRateLimitPerMinute int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
}

var keys = []string{
	"SERVER_PORT",
	"LOG_LEVEL",
	"STORE_DRIVER",
	"DATABASE_URL",
	"DYNAMODB_TRANSACTIONS_TABLE_NAME",
	"DYNAMODB_USERS_TABLE_NAME",
	"DYNAMODB_COUNTERS_TABLE_NAME",
	"JWT_SECRET",
	"CREDENTIAL_TTL",
	"ADMIN_TELLER_NUMBER",
	"STATION_ADDRESSES",
	"CORS_ALLOWED_ORIGINS",
	"REDIS_URL",
	"REDIS_RATE_LIMIT_PREFIX",
	"LOGIN_RATE_LIMIT_PER_MINUTE",
}

// LoadConfig reads configuration from a .env file in the working directory and
// the environment. The environment wins.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", DriverPostgres)
	viper.SetDefault("CREDENTIAL_TTL", "5h")
	viper.SetDefault("ADMIN_TELLER_NUMBER", 99)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "teller-queue:login")
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10)

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(viper.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.CredentialTTL <= 0 {
		return errors.New("CREDENTIAL_TTL must be positive")
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for the postgres store")
		}
	case DriverDynamoDB:
		if c.DynamoDBTransactionsTableName == "" || c.DynamoDBUsersTableName == "" || c.DynamoDBCountersTableName == "" {
			return errors.New("one or more DynamoDB table name environment variables are not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
