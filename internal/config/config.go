// Package config provides configuration structures and validation for the ledger.
// Configuration is layered: built-in defaults, an optional env-style file and
// command-line flags. Ledger semantics never depend on process environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Withdrawal dispute policies accepted by LedgerConfig.WithdrawalDisputePolicy.
const (
	WithdrawalDisputeIgnore    = "ignore"
	WithdrawalDisputeSymmetric = "symmetric"
	WithdrawalDisputeReverse   = "reverse"
)

// Config holds the complete application configuration. Each field represents a
// subsystem and is validated once during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Ledger      LedgerConfig
	Output      OutputConfig
	WorkerPool  WorkerPoolConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string `key:"APP_ENV" validate:"required"`
	Name string `key:"APP_NAME" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `key:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
}

// LedgerConfig contains the ledger engine policy switches
type LedgerConfig struct {
	WithdrawalDisputePolicy string `key:"LEDGER_WITHDRAWAL_DISPUTE_POLICY" validate:"oneof=ignore symmetric reverse"`
}

// OutputConfig controls where account summaries are written
type OutputConfig struct {
	Dir string `key:"OUTPUT_DIR"` // Empty means stdout (single source only)
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int `key:"WORKER_POOL_SIZE" validate:"gt=0"` // Maximum number of sources processed concurrently
}

// KafkaConfig contains the dead-letter publishing configuration.
// Publishing is disabled while Brokers is empty.
type KafkaConfig struct {
	Brokers           string        `key:"KAFKA_BROKERS"`
	DLQTopic          string        `key:"KAFKA_DLQ_TOPIC" validate:"required_with=Brokers"`
	NumPartitions     int           `key:"KAFKA_NUM_PARTITIONS" validate:"gte=0"`
	ReplicationFactor int           `key:"KAFKA_REPLICATION_FACTOR" validate:"gte=0"`
	WriteTimeout      time.Duration `key:"KAFKA_WRITE_TIMEOUT" validate:"gt=0"`
}

// Enabled reports whether rejected records should be dead-lettered
func (k KafkaConfig) Enabled() bool {
	return k.Brokers != "" && k.DLQTopic != ""
}

// PostgresConfig contains PostgreSQL configuration for the summary export.
// The export is disabled while URL is empty.
type PostgresConfig struct {
	URL             string        `key:"POSTGRES_URL"`                                 // Database connection string
	MaxConns        int32         `key:"POSTGRES_MAX_CONNS" validate:"gt=0"`           // Maximum number of open connections
	MinConns        int32         `key:"POSTGRES_MIN_CONNS" validate:"gt=0"`           // Minimum number of idle connections
	ConnMaxLifetime time.Duration `key:"POSTGRES_MAX_CONN_LIFETIME" validate:"gt=0"`   // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration `key:"POSTGRES_MAX_CONN_IDLE_TIME" validate:"gt=0"`  // Maximum idle time of a connection
	MigrationsPath  string        `key:"POSTGRES_MIGRATIONS_PATH" validate:"required"` // Path to migration files
}

// Enabled reports whether account summaries should be exported to PostgreSQL
func (p PostgresConfig) Enabled() bool {
	return p.URL != ""
}

// MongoDBConfig contains MongoDB configuration for the journal export.
// The export is disabled while URI is empty.
type MongoDBConfig struct {
	URI             string        `key:"MONGO_URI"`
	Database        string        `key:"MONGO_DATABASE" validate:"required_with=URI"`
	Timeout         time.Duration `key:"MONGO_TIMEOUT" validate:"gt=0"`
	MaxPoolSize     uint64        `key:"MONGO_MAX_POOL_SIZE" validate:"gt=0"`
	MinPoolSize     uint64        `key:"MONGO_MIN_POOL_SIZE" validate:"gt=0"`
	MaxConnIdleTime time.Duration `key:"MONGO_MAX_CONN_IDLE_TIME" validate:"gt=0"`
}

// Enabled reports whether journal entries should be exported to MongoDB
func (m MongoDBConfig) Enabled() bool {
	return m.URI != ""
}

var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report configuration keys instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if key := field.Tag.Get("key"); key != "" {
			return key
		}
		return field.Name
	})
	return v
}

// validate performs validation of all configuration values and returns every
// violation in a single error
func (c *Config) validate() error {
	var validationErrors []string

	if err := configValidator.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		for _, fe := range fieldErrors {
			validationErrors = append(validationErrors, describe(fe))
		}
	}

	if c.Postgres.MinConns > c.Postgres.MaxConns {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS")
	}
	if c.MongoDB.MinPoolSize > c.MongoDB.MaxPoolSize {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must not exceed MONGO_MAX_POOL_SIZE")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
