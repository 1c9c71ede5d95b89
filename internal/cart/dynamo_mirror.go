package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/shopfront/storefront-gateway/internal/awsx"
)

// ErrStaleSnapshot is returned when a mirror write lost to a newer snapshot
// for the same session: another instance advanced the record since this one
// last read it.
var ErrStaleSnapshot = errors.New("stale cart snapshot")

// mirrorRecord is the shape persisted in the carts DynamoDB table.
type mirrorRecord struct {
	SessionID string    `dynamodbav:"session_id"` // PK
	Items     []Line    `dynamodbav:"items"`
	Count     int       `dynamodbav:"count"`
	Revision  int64     `dynamodbav:"revision"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// DynamoMirror persists cart snapshots in DynamoDB. Writes are conditional on
// the revision this instance last observed for the session, so a concurrent
// instance's newer snapshot is never clobbered.
type DynamoMirror struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time

	mu   sync.Mutex
	seen map[string]int64 // revision last read or written per session
}

// NewDynamoMirror returns a DynamoMirror bound to a table.
func NewDynamoMirror(client awsx.DynamoDBAPI, tableName string) *DynamoMirror {
	return &DynamoMirror{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		seen:      map[string]int64{},
	}
}

// Put writes the snapshot at revision seen+1. The write is refused with
// ErrStaleSnapshot when the stored revision no longer matches the one this
// instance last observed.
func (d *DynamoMirror) Put(ctx context.Context, sessionID string, c Cart) error {
	d.mu.Lock()
	seen := d.seen[sessionID]
	d.mu.Unlock()

	rec := mirrorRecord{
		SessionID: sessionID,
		Items:     c.Items,
		Count:     c.Count,
		Revision:  seen + 1,
		UpdatedAt: d.nowFunc().UTC(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	cond := "attribute_not_exists(session_id) OR revision = :rev"
	_, err = d.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: &cond,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rev": &types.AttributeValueMemberN{Value: strconv.FormatInt(seen, 10)},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrStaleSnapshot
		}
		return fmt.Errorf("put item: %w", err)
	}

	d.mu.Lock()
	d.seen[sessionID] = rec.Revision
	d.mu.Unlock()
	return nil
}

// Get fetches the snapshot for a session, recording its revision as the base
// for this instance's next Put. Returns (nil, nil) if not found.
func (d *DynamoMirror) Get(ctx context.Context, sessionID string) (*Cart, error) {
	out, err := d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &d.tableName,
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

	var rec mirrorRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	d.mu.Lock()
	d.seen[sessionID] = rec.Revision
	d.mu.Unlock()

	return &Cart{Items: rec.Items, Count: rec.Count}, nil
}
