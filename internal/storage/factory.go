package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buker/go-tasks/internal/config"
)

// NewBackend returns the backend selected by cfg.Backend:
//   - "dynamodb" (default): DynamoDB table cfg.Table in cfg.Region
//   - "mongo": collection cfg.Table in cfg.MongoDatabase at cfg.MongoURI
//   - "postgres": table cfg.Table at cfg.PostgresDSN
//   - "sqlite": table cfg.Table in the file cfg.SQLitePath
//   - "memory": process memory, lost on restart
//
// The name is matched case-insensitively after trimming. Returns an error
// wrapping ErrUnknownBackend for any other name, or the constructor's
// error when the client cannot be built.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = "dynamodb"
	}

	switch name {
	case "dynamodb":
		client, err := NewDynamoClient(ctx, cfg.Region, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		return NewDynamoBackend(client, cfg.Table, cfg.ReadyAttempts, cfg.ReadyDelay), nil

	case "mongo", "mongodb":
		return NewMongoBackend(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Table, cfg.ReadyAttempts, cfg.ReadyDelay)

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres backend")
		}
		return NewPostgresBackend(ctx, cfg.PostgresDSN, cfg.Table, cfg.ReadyAttempts, cfg.ReadyDelay)

	case "sqlite":
		return NewSQLiteBackend(cfg.SQLitePath, cfg.Table)

	case "memory":
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("%w: %q. Expected 'dynamodb', 'mongo', 'postgres', 'sqlite' or 'memory'", ErrUnknownBackend, name)
	}
}
