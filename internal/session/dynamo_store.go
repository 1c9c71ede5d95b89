package session

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/shopfront/storefront-gateway/internal/awsx"
)

// identityRecord is the shape persisted in the sessions DynamoDB table.
// ExpiresTTL duplicates the expiry in epoch seconds for the table's TTL
// attribute; expired records that DynamoDB has not reaped yet are still
// filtered by the Manager.
type identityRecord struct {
	SessionID  string    `dynamodbav:"session_id"` // PK
	ExpiresAt  time.Time `dynamodbav:"expires_at"`
	ExpiresTTL int64     `dynamodbav:"expires_ttl"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
}

// DynamoStore persists session identities in DynamoDB.
type DynamoStore struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoStore returns a DynamoStore bound to a table.
func NewDynamoStore(client awsx.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put writes the identity and its expiry as a single item. A replaced
// identity simply overwrites the previous item under the same key.
func (s *DynamoStore) Put(ctx context.Context, id Identity) error {
	rec := identityRecord{
		SessionID:  id.SessionID,
		ExpiresAt:  id.ExpiresAt,
		ExpiresTTL: id.ExpiresAt.Unix(),
		CreatedAt:  s.nowFunc().UTC(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get fetches an identity by session id. Returns (nil, nil) if not found.
func (s *DynamoStore) Get(ctx context.Context, sessionID string) (*Identity, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec identityRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &Identity{SessionID: rec.SessionID, ExpiresAt: rec.ExpiresAt}, nil
}

// Delete removes an identity. Present for completeness; expiry normally
// replaces identities in place rather than deleting them.
func (s *DynamoStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
