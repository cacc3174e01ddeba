package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoBackend.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoItem is the stored shape of a task.
type dynamoItem struct {
	ID       string `dynamodbav:"id"`
	Task     string `dynamodbav:"task"`
	Priority int    `dynamodbav:"priority"`
}

// DynamoBackend stores tasks in a DynamoDB table whose partition key is
// the string attribute "id".
type DynamoBackend struct {
	client        DynamoAPI
	table         string
	readyAttempts int
	readyDelay    time.Duration
	log           log.FieldLogger
}

// DynamoOption configures a DynamoBackend.
type DynamoOption func(*DynamoBackend)

// WithDynamoLogger sets the logger used for items that cannot be decoded.
func WithDynamoLogger(l log.FieldLogger) DynamoOption {
	return func(b *DynamoBackend) { b.log = l }
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain (environment, shared config, session token, instance role).
// A non-empty endpoint points the client at DynamoDB Local or another
// compatible service.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewDynamoBackend returns a backend for table. The readiness wait after
// creating the table makes at most readyAttempts probes, readyDelay apart.
func NewDynamoBackend(client DynamoAPI, table string, readyAttempts int, readyDelay time.Duration, opts ...DynamoOption) *DynamoBackend {
	b := &DynamoBackend{
		client:        client,
		table:         table,
		readyAttempts: readyAttempts,
		readyDelay:    readyDelay,
		log:           log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EnsureCollection creates the table with 5/5 provisioned throughput and
// waits until it is ACTIVE. ResourceInUseException means the table
// already exists and is treated as success.
func (b *DynamoBackend) EnsureCollection(ctx context.Context) error {
	_, err := b.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(b.table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table %s: %w", b.table, err)
		}
	}

	delay := b.readyDelay
	if delay <= 0 {
		delay = time.Second
	}
	waiter := dynamodb.NewTableExistsWaiter(b.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = delay
		o.MaxDelay = delay
	})

	attempts := b.readyAttempts
	if attempts < 1 {
		attempts = 1
	}
	maxWait := time.Duration(attempts) * delay
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.table)}, maxWait); err != nil {
		return fmt.Errorf("table %s not ready: %w", b.table, err)
	}

	return nil
}

// Scan reads every page of the table. Items are decoded one at a time: an
// item whose id or task cannot be decoded is skipped, and an unusable
// priority reads as DefaultPriority. Both cases are logged.
func (b *DynamoBackend) Scan(ctx context.Context) ([]Task, error) {
	paginator := dynamodb.NewScanPaginator(b.client, &dynamodb.ScanInput{
		TableName: aws.String(b.table),
	})

	result := make([]Task, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", b.table, err)
		}

		for _, av := range page.Items {
			task, err := b.decodeTask(av)
			if err != nil {
				b.log.WithError(err).WithField("table", b.table).Warn("Skipping undecodable task item")
				continue
			}
			result = append(result, task)
		}
	}

	return result, nil
}

func (b *DynamoBackend) decodeTask(av map[string]types.AttributeValue) (Task, error) {
	var item struct {
		ID   string `dynamodbav:"id"`
		Task string `dynamodbav:"task"`
	}
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return Task{}, err
	}

	task := Task{ID: item.ID, Description: item.Task, Priority: DefaultPriority}
	raw, ok := av["priority"]
	if !ok {
		return task, nil
	}
	if _, isNull := raw.(*types.AttributeValueMemberNULL); isNull {
		return task, nil
	}

	var priority int
	if err := attributevalue.Unmarshal(raw, &priority); err != nil {
		b.log.WithError(err).WithField("id", item.ID).Warn("Invalid task priority, using default")
		return task, nil
	}
	task.Priority = priority
	return task, nil
}

// Put writes task with PutItem.
func (b *DynamoBackend) Put(ctx context.Context, task Task) error {
	av, err := attributevalue.MarshalMap(dynamoItem{
		ID:       task.ID,
		Task:     task.Description,
		Priority: task.Priority,
	})
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	if _, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes the item keyed by id. DynamoDB reports success for
// missing keys.
func (b *DynamoBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	}); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no connections that need closing.
func (b *DynamoBackend) Close(ctx context.Context) error {
	return nil
}
