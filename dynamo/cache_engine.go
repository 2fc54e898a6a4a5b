package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/barrel/cache"
	"github.com/jacentio/barrel/internal/cachekey"
	"github.com/jacentio/barrel/store"
)

// batchWriteLimit is the maximum number of requests in one BatchWriteItem call.
const batchWriteLimit = 25

// maxBatchRetries bounds the retries of unprocessed batch items.
const maxBatchRetries = 3

var _ cache.Engine = (*CacheEngine)(nil)

// CacheEngine is a cache.Engine backed by a DynamoDB table with TTL enabled
// on TTLAttribute. Each cache key is one item.
type CacheEngine struct {
	client API
	cfg    Config
	now    func() time.Time
}

// NewCacheEngine creates a CacheEngine. Unset Config values are defaulted.
func NewCacheEngine(client API, cfg Config) *CacheEngine {
	cfg.validate()
	return &CacheEngine{client: client, cfg: cfg, now: time.Now}
}

func (e *CacheEngine) key(k string) PK {
	return PK{e.cfg.KeyAttribute: &types.AttributeValueMemberS{Value: cachekey.Bounded(k, e.cfg.MaxKeyLength)}}
}

// Get implements cache.Engine. Expired items that DynamoDB has not yet
// deleted are reported missing.
func (e *CacheEngine) Get(ctx context.Context, key string) (store.Document, bool, error) {
	result, err := e.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(e.cfg.CacheTable),
		Key:            e.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, err
	}
	if result.Item == nil || IsExpired(result.Item, e.now()) {
		return nil, false, nil
	}

	m, ok := result.Item[e.cfg.DocumentAttribute].(*types.AttributeValueMemberM)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s has no map attribute %q", ErrInvalidItem, key, e.cfg.DocumentAttribute)
	}
	doc, err := ItemToDocument(m.Value)
	if err != nil {
		return nil, false, fmt.Errorf("cached document %s: %w", key, err)
	}
	return doc, true, nil
}

// Set implements cache.Engine.
func (e *CacheEngine) Set(ctx context.Context, key string, doc store.Document, ttl time.Duration) error {
	item, err := DocumentToItem(doc)
	if err != nil {
		return err
	}

	record := e.key(key)
	record[e.cfg.DocumentAttribute] = &types.AttributeValueMemberM{Value: item}
	if ttl > 0 {
		record[TTLAttribute] = &types.AttributeValueMemberN{
			Value: strconv.FormatInt(e.now().Add(ttl).Unix(), 10),
		}
	}

	_, err = e.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(e.cfg.CacheTable),
		Item:      record,
	})
	return err
}

// DeleteMany implements cache.Engine. Keys that shorten to the same item key
// are deleted once. Keys are deleted in batches; unprocessed items are
// retried before ErrUnprocessed is returned.
func (e *CacheEngine) DeleteMany(ctx context.Context, keys []string) error {
	seen := make(map[string]bool, len(keys))
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		pk := e.key(k)
		id := pk[e.cfg.KeyAttribute].(*types.AttributeValueMemberS).Value
		if seen[id] {
			continue
		}
		seen[id] = true
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: pk},
		})
	}

	for start := 0; start < len(requests); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(requests))
		if err := e.batchWrite(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (e *CacheEngine) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{e.cfg.CacheTable: requests}
	for attempt := 0; attempt <= maxBatchRetries; attempt++ {
		result, err := e.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return err
		}
		if len(result.UnprocessedItems) == 0 {
			return nil
		}
		pending = result.UnprocessedItems
	}
	return fmt.Errorf("%w: %d requests", ErrUnprocessed, len(pending[e.cfg.CacheTable]))
}
