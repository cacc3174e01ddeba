// Package config loads the service configuration from the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultRegion is the AWS region used when AWS_REGION is unset.
	DefaultRegion = "us-east-1"

	// DefaultTable is the DynamoDB table holding the tasks.
	DefaultTable = "ICC1_tasks"

	// DefaultReadyAttempts bounds the wait for a freshly created collection.
	DefaultReadyAttempts = 20

	// DefaultReadyDelay is the pause between two readiness probes.
	DefaultReadyDelay = 2 * time.Second

	mongoURITemplate = "mongodb://%s:%s@%s"
)

// Config holds every setting the service reads at startup.
type Config struct {
	// Backend selects the storage backend: dynamodb, mongo, postgres, sqlite or memory.
	Backend string

	// Region is the AWS region of the DynamoDB table.
	Region string
	// Table is the collection name, used as DynamoDB table, Mongo collection and SQL table.
	Table string
	// DynamoEndpoint overrides the DynamoDB endpoint (DynamoDB Local).
	DynamoEndpoint string

	MongoURI      string
	MongoDatabase string

	PostgresDSN string
	SQLitePath  string

	// ReadyAttempts and ReadyDelay bound the collection readiness wait.
	ReadyAttempts int
	ReadyDelay    time.Duration

	ListenAddr  string
	MetricsAddr string
	SentryDSN   string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, applying defaults for
// unset variables. Malformed numbers and durations are reported as errors.
func Load() (*Config, error) {
	cfg := &Config{
		Backend:        strings.ToLower(getenv("STORE_BACKEND", "dynamodb")),
		Region:         getenv("AWS_REGION", DefaultRegion),
		Table:          getenv("DYNAMODB_TABLE", DefaultTable),
		DynamoEndpoint: getenv("DYNAMODB_ENDPOINT", ""),
		MongoURI:       mongoURI(),
		MongoDatabase:  getenv("MONGODB_DATABASE", "tasks"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		SQLitePath:     getenv("SQLITE_PATH", "tasks.db"),
		ReadyAttempts:  DefaultReadyAttempts,
		ReadyDelay:     DefaultReadyDelay,
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		MetricsAddr:    getenv("METRICS_ADDR", ":8081"),
		SentryDSN:      getenv("SENTRY_DSN", ""),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getenv("LOG_FORMAT", "text")),
	}

	if v := getenv("READY_ATTEMPTS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid READY_ATTEMPTS %q: must be a positive integer", v)
		}
		cfg.ReadyAttempts = n
	}

	if v := getenv("READY_DELAY", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid READY_DELAY %q: must be a positive duration", v)
		}
		cfg.ReadyDelay = d
	}

	return cfg, nil
}

// ReadyTimeout is the longest the readiness wait may take.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyAttempts) * c.ReadyDelay
}

// mongoURI prefers MONGODB_URI and falls back to assembling one from
// MONGODB_USERNAME, MONGODB_PASSWORD and MONGODB_ENDPOINT.
func mongoURI() string {
	if uri := getenv("MONGODB_URI", ""); uri != "" {
		return uri
	}
	endpoint := getenv("MONGODB_ENDPOINT", "")
	if endpoint == "" {
		return ""
	}
	return fmt.Sprintf(mongoURITemplate, os.Getenv("MONGODB_USERNAME"), os.Getenv("MONGODB_PASSWORD"), endpoint)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
