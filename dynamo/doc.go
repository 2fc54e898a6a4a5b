// Package dynamo connects barrel documents to Amazon DynamoDB.
//
// [Source] reads items as documents and wraps them in stores:
//
//	src := dynamo.NewSource(client)
//	user, err := src.Get(ctx, userType, "users", dynamo.PK{
//	    "pk": &types.AttributeValueMemberS{Value: "USER#42"},
//	})
//
// Items whose TTL has passed are treated as absent. Query applies the same
// filter on the server side and reads every page.
//
// [CacheEngine] implements cache.Engine on a table with DynamoDB TTL enabled
// on the "ttl" attribute. Keys longer than Config.MaxKeyLength are shortened
// with a digest suffix.
package dynamo
