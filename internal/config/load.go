package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"log-level":                 "LOG_LEVEL",
	"withdrawal-dispute-policy": "LEDGER_WITHDRAWAL_DISPUTE_POLICY",
	"output-dir":                "OUTPUT_DIR",
	"workers":                   "WORKER_POOL_SIZE",
}

// RegisterFlags declares the flags LoadConfig understands on fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "ledger", "base name of the optional .env configuration file")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("withdrawal-dispute-policy", "", "how disputes on withdrawals are handled: ignore, symmetric or reverse")
	fs.String("output-dir", "", "directory for per-source reports (required with more than one input)")
	fs.Int("workers", 0, "number of sources processed concurrently")
}

// LoadConfigWithName loads configuration using the specified name, auto-detecting the file type
func LoadConfigWithName(configName string, fs *pflag.FlagSet) (*Config, error) {
	return loadConfig(configName, "", fs)
}

// LoadConfig loads configuration from a .env file using the provided base name,
// then applies any flags explicitly set on fs. fs may be nil.
func LoadConfig(configName string, fs *pflag.FlagSet) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(configFileName, "env", fs)
}

// loadConfig layers configuration sources:
// 1. Load defaults
// 2. Override with config file values (if found)
// 3. Override with explicitly set command-line flags
// 4. Validate the final configuration
func loadConfig(configName, configType string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// stdout carries the report, so loader diagnostics go to stderr
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Fprintf(os.Stderr, "INFO: No config file '%s' found, relying on flags and defaults.\n", configName)
		} else {
			return nil, fmt.Errorf("failed to read config file (%s): %w", v.ConfigFileUsed(), err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "INFO: Config loaded from file: %s\n", v.ConfigFileUsed())
	}

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
		},
		Ledger: LedgerConfig{
			WithdrawalDisputePolicy: strings.ToLower(v.GetString("LEDGER_WITHDRAWAL_DISPUTE_POLICY")),
		},
		Output: OutputConfig{
			Dir: v.GetString("OUTPUT_DIR"),
		},
		WorkerPool: WorkerPoolConfig{
			Size: v.GetInt("WORKER_POOL_SIZE"),
		},
		Kafka: KafkaConfig{
			Brokers:           v.GetString("KAFKA_BROKERS"),
			DLQTopic:          v.GetString("KAFKA_DLQ_TOPIC"),
			NumPartitions:     v.GetInt("KAFKA_NUM_PARTITIONS"),
			ReplicationFactor: v.GetInt("KAFKA_REPLICATION_FACTOR"),
			WriteTimeout:      v.GetDuration("KAFKA_WRITE_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			URL:             v.GetString("POSTGRES_URL"),
			MaxConns:        int32(v.GetInt("POSTGRES_MAX_CONNS")),
			MinConns:        int32(v.GetInt("POSTGRES_MIN_CONNS")),
			ConnMaxLifetime: v.GetDuration("POSTGRES_MAX_CONN_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("POSTGRES_MAX_CONN_IDLE_TIME"),
			MigrationsPath:  v.GetString("POSTGRES_MIGRATIONS_PATH"),
		},
		MongoDB: MongoDBConfig{
			URI:             v.GetString("MONGO_URI"),
			Database:        v.GetString("MONGO_DATABASE"),
			Timeout:         v.GetDuration("MONGO_TIMEOUT"),
			MaxPoolSize:     uint64(v.GetInt("MONGO_MAX_POOL_SIZE")),
			MinPoolSize:     uint64(v.GetInt("MONGO_MIN_POOL_SIZE")),
			MaxConnIdleTime: v.GetDuration("MONGO_MAX_CONN_IDLE_TIME"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with values that reproduce the plain
// CSV-in, CSV-out behaviour with every exporter disabled.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "client-ledger")

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("LEDGER_WITHDRAWAL_DISPUTE_POLICY", WithdrawalDisputeIgnore)

	v.SetDefault("OUTPUT_DIR", "")

	v.SetDefault("WORKER_POOL_SIZE", 4)

	// Dead-letter publishing stays off until brokers are configured
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_DLQ_TOPIC", "ledger_rejections")
	v.SetDefault("KAFKA_NUM_PARTITIONS", 1)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", 10*time.Second)

	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("POSTGRES_MAX_CONNS", 4)
	v.SetDefault("POSTGRES_MIN_CONNS", 1)
	v.SetDefault("POSTGRES_MAX_CONN_LIFETIME", time.Hour)
	v.SetDefault("POSTGRES_MAX_CONN_IDLE_TIME", 30*time.Minute)
	v.SetDefault("POSTGRES_MIGRATIONS_PATH", "migrations/postgres")

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "client_ledger")
	v.SetDefault("MONGO_TIMEOUT", 10*time.Second)
	v.SetDefault("MONGO_MAX_POOL_SIZE", 10)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 1)
	v.SetDefault("MONGO_MAX_CONN_IDLE_TIME", 30*time.Minute)
}
