// Package stream turns DynamoDB Streams events into typed stores.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/barrel/cache"
	"github.com/jacentio/barrel/dynamo"
	"github.com/jacentio/barrel/store"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// ttlPrincipal is the principal DynamoDB records for items deleted by TTL.
const ttlPrincipal = "dynamodb.amazonaws.com"

// Record is one stream record with its images wrapped in stores. Old is nil
// for INSERT events and New is nil for REMOVE events.
type Record struct {
	EventID   string
	EventName string
	Keys      dynamo.PK
	Old       *store.Store
	New       *store.Store

	// Expired is set when DynamoDB TTL removed the item.
	Expired bool
}

// Func processes a single record.
type Func func(ctx context.Context, rec Record) error

// Handler processes DynamoDB stream events.
type Handler struct {
	ref    store.Ref
	fn     Func
	logger *slog.Logger
}

// NewHandler creates a handler wrapping record images with ref. Variant refs
// select a type per image.
func NewHandler(ref store.Ref, fn Func, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ref:    ref,
		fn:     fn,
		logger: logger,
	}
}

// HandleEvent processes every record in order. The first failure stops the
// batch and is returned, so that Lambda retries it.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"eventName", record.EventName,
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	rec := Record{
		EventID:   record.EventID,
		EventName: record.EventName,
		Keys:      ConvertStreamKey(record.Change.Keys),
		Expired:   isTTLRemoval(record),
	}

	var err error
	if record.EventName != EventInsert && record.Change.OldImage != nil {
		if rec.Old, err = h.wrap(record.Change.OldImage); err != nil {
			return fmt.Errorf("old image: %w", err)
		}
	}
	if record.EventName != EventRemove && record.Change.NewImage != nil {
		if rec.New, err = h.wrap(record.Change.NewImage); err != nil {
			return fmt.Errorf("new image: %w", err)
		}
	}

	h.logger.Debug("processing record",
		"eventID", rec.EventID,
		"eventName", rec.EventName,
		"expired", rec.Expired,
	)
	return h.fn(ctx, rec)
}

func (h *Handler) wrap(image map[string]events.DynamoDBAttributeValue) (*store.Store, error) {
	doc, err := ImageToDocument(image)
	if err != nil {
		return nil, err
	}
	return h.ref.New(doc)
}

func isTTLRemoval(record events.DynamoDBEventRecord) bool {
	return record.EventName == EventRemove &&
		record.UserIdentity != nil &&
		record.UserIdentity.Type == "Service" &&
		record.UserIdentity.PrincipalID == ttlPrincipal
}

// ClearCache returns a Func deleting the cache keys derived from each
// changed record. args extracts the call values handed to the clearer's key
// generator; records it returns nil for are skipped.
func ClearCache(cl *cache.Clearer, args func(Record) []any) Func {
	return func(ctx context.Context, rec Record) error {
		values := args(rec)
		if values == nil {
			return nil
		}
		return cl.Clear(ctx, cache.Call{Args: values})
	}
}

// ImageToDocument converts a stream image to a document, decoding values
// the same way dynamo.ItemToDocument does.
func ImageToDocument(image map[string]events.DynamoDBAttributeValue) (store.Document, error) {
	item := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		av, err := convertValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return dynamo.ItemToDocument(item)
}

// ConvertStreamKey converts a DynamoDB stream key to a dynamo.PK.
// Use this when you need to convert keys from stream records to dynamo operations.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) dynamo.PK {
	result := make(dynamo.PK)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}

// convertValue converts a stream attribute value to its SDK counterpart.
func convertValue(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, len(list))
		for i, e := range list {
			av, err := convertValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = av
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	case events.DataTypeMap:
		m := v.Map()
		out := make(map[string]types.AttributeValue, len(m))
		for k, e := range m {
			av, err := convertValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = av
		}
		return &types.AttributeValueMemberM{Value: out}, nil
	}
	return nil, fmt.Errorf("unsupported stream data type %d", v.DataType())
}
