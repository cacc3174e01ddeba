package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// Timeout for establishing the initial connection.
	connectTimeout = 5 * time.Second

	// namespaceExistsCode is returned by createCollection for an existing collection.
	namespaceExistsCode = 48
)

type mongoTask struct {
	ID       string `bson:"_id"`
	Task     string `bson:"task"`
	Priority *int   `bson:"priority,omitempty"`
}

// MongoBackend stores tasks as documents {_id, task, priority} in a
// single MongoDB collection.
type MongoBackend struct {
	client        *mongo.Client
	collection    *mongo.Collection
	readyAttempts int
	readyDelay    time.Duration
}

// NewMongoBackend connects to uri and addresses database.collection.
// The connection is verified lazily by EnsureCollection.
func NewMongoBackend(ctx context.Context, uri, database, collection string, readyAttempts int, readyDelay time.Duration) (*MongoBackend, error) {
	if uri == "" {
		return nil, errors.New("mongo connection string is empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &MongoBackend{
		client:        client,
		collection:    client.Database(database).Collection(collection),
		readyAttempts: readyAttempts,
		readyDelay:    readyDelay,
	}, nil
}

// EnsureCollection pings the cluster until it answers, then creates the
// collection. NamespaceExists is treated as success.
func (b *MongoBackend) EnsureCollection(ctx context.Context) error {
	err := waitReady(ctx, b.readyAttempts, b.readyDelay, func(ctx context.Context) error {
		return b.client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		return fmt.Errorf("failed to ping cluster: %w", err)
	}

	db := b.collection.Database()
	if err := db.CreateCollection(ctx, b.collection.Name()); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode {
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", b.collection.Name(), err)
	}
	return nil
}

// Scan returns every document in natural order.
func (b *MongoBackend) Scan(ctx context.Context) ([]Task, error) {
	cursor, err := b.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoTask
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	result := make([]Task, 0, len(docs))
	for _, doc := range docs {
		priority := DefaultPriority
		if doc.Priority != nil {
			priority = *doc.Priority
		}
		result = append(result, Task{ID: doc.ID, Description: doc.Task, Priority: priority})
	}
	return result, nil
}

// Put upserts the document for task.ID.
func (b *MongoBackend) Put(ctx context.Context, task Task) error {
	priority := task.Priority
	doc := mongoTask{ID: task.ID, Task: task.Description, Priority: &priority}

	_, err := b.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes the document with _id == id, if any.
func (b *MongoBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// Close disconnects the client.
func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
