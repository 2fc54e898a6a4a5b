package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/barrel/store"
)

// API is the subset of the DynamoDB client used by this package.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// QueryInput defines parameters for querying items.
type QueryInput struct {
	// TableName is the DynamoDB table to query.
	TableName string

	// IndexName is the optional GSI/LSI to query.
	IndexName string

	// KeyConditionExpression is the DynamoDB key condition.
	KeyConditionExpression string

	// FilterExpression is an optional filter (TTL filter is automatically merged).
	FilterExpression string

	// ExpressionAttributeNames maps expression attribute name placeholders.
	ExpressionAttributeNames map[string]string

	// ExpressionAttributeValues maps expression attribute value placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue

	// Limit is the page size (0 = DynamoDB default). All pages are read.
	Limit int32

	// ScanIndexForward determines sort order (true = ascending, false = descending).
	ScanIndexForward *bool
}

// Source loads DynamoDB items as store documents and writes documents back.
type Source struct {
	client API
	now    func() time.Time
}

// NewSource creates a new Source.
func NewSource(client API) *Source {
	return &Source{client: client, now: time.Now}
}

// Load returns the item under key as a document. Missing and expired items
// return ErrNotFound.
func (s *Source) Load(ctx context.Context, table string, key PK) (store.Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	if IsExpired(result.Item, s.now()) {
		return nil, ErrNotFound
	}
	return ItemToDocument(result.Item)
}

// Get loads the item under key and wraps it with t.
func (s *Source) Get(ctx context.Context, t *store.Type, table string, key PK) (*store.Store, error) {
	doc, err := s.Load(ctx, table, key)
	if err != nil {
		return nil, err
	}
	return t.New(doc), nil
}

// Query returns every matching, unexpired item as a document, reading all
// pages.
func (s *Source) Query(ctx context.Context, input QueryInput) ([]store.Document, error) {
	now := s.now()

	filterExpr := TTLFilterExpr()
	if input.FilterExpression != "" {
		filterExpr = fmt.Sprintf("(%s) AND (%s)", input.FilterExpression, filterExpr)
	}

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(input.TableName),
		KeyConditionExpression:    aws.String(input.KeyConditionExpression),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeNames:  mergeExprNames(TTLFilterNames(), input.ExpressionAttributeNames),
		ExpressionAttributeValues: mergeExprValues(TTLFilterValues(now), input.ExpressionAttributeValues),
	}
	if input.IndexName != "" {
		queryInput.IndexName = aws.String(input.IndexName)
	}
	if input.Limit > 0 {
		queryInput.Limit = aws.Int32(input.Limit)
	}
	if input.ScanIndexForward != nil {
		queryInput.ScanIndexForward = input.ScanIndexForward
	}

	var docs []store.Document
	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			doc, err := ItemToDocument(raw)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// QueryCollection runs Query and wraps the results with ref, which may
// select a type per item.
func (s *Source) QueryCollection(ctx context.Context, ref store.Ref, input QueryInput) (*store.Collection, error) {
	docs, err := s.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}
	return store.NewCollection(ref, items)
}

// Save writes doc as a whole item. The document must carry the table's key
// attributes.
func (s *Source) Save(ctx context.Context, table string, doc store.Document) error {
	item, err := DocumentToItem(doc)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

// Expire sets the TTL of the item under key. Items that already carry a TTL
// keep it.
func (s *Source) Expire(ctx context.Context, table string, key PK, at time.Time) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": TTLAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(at.Unix(), 10),
			},
		},
	})

	// Ignore condition failure - already has TTL
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

// ItemToDocument converts a DynamoDB item to a document. Numbers and number
// sets become json.Number values, so integers keep every digit; lists become
// []any and maps map[string]any.
func ItemToDocument(item map[string]types.AttributeValue) (store.Document, error) {
	doc := store.Document{}
	err := attributevalue.UnmarshalMapWithOptions(item, &doc, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	jsonNumbers(doc)
	return doc, nil
}

// DocumentToItem converts a document to a DynamoDB item. json.Number values
// are written as numbers.
func DocumentToItem(doc store.Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(numbers(doc))
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return item, nil
}

// numbers rewrites json.Number values so that they marshal as N attributes.
func numbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = numbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = numbers(e)
		}
		return out
	case json.Number:
		return attributevalue.Number(t)
	}
	return v
}

// jsonNumbers rewrites decoded attributevalue.Number values in place as
// json.Number, the number type documents carry.
func jsonNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = jsonNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = jsonNumbers(e)
		}
		return t
	case attributevalue.Number:
		return json.Number(t)
	case []attributevalue.Number:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = json.Number(n)
		}
		return out
	}
	return v
}
