package session

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestDynamoStore_PutGetDelete(t *testing.T) {
	mock := newSimpleMock()
	s := NewDynamoStore(mock, "sessions-table")

	ctx := context.Background()
	id := Identity{
		SessionID: "sess-1",
		ExpiresAt: time.Now().Add(48 * time.Hour).Round(time.Second).UTC(),
	}

	if err := s.Put(ctx, id); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	// id and expiry written as one item
	item := mock.table["sess-1"]
	if item == nil {
		t.Fatalf("mock item missing")
	}
	if _, ok := item["expires_at"]; !ok {
		t.Fatalf("expires_at not written with session_id: %+v", item)
	}
	if ttlAttr, ok := item["expires_ttl"].(*types.AttributeValueMemberN); !ok || ttlAttr.Value == "" {
		t.Fatalf("expires_ttl not set: %+v", item["expires_ttl"])
	}
	if mock.putCalls != 1 {
		t.Fatalf("expected a single PutItem, got %d", mock.putCalls)
	}

	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected identity, got nil")
	}
	if got.SessionID != id.SessionID {
		t.Fatalf("session id mismatch: %s", got.SessionID)
	}
	if !got.ExpiresAt.Equal(id.ExpiresAt) {
		t.Fatalf("expiry mismatch: got %v want %v", got.ExpiresAt, id.ExpiresAt)
	}

	// replacing in place overwrites the same key
	id2 := Identity{SessionID: "sess-1", ExpiresAt: id.ExpiresAt.Add(48 * time.Hour)}
	if err := s.Put(ctx, id2); err != nil {
		t.Fatalf("second Put error: %v", err)
	}
	got2, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !got2.ExpiresAt.Equal(id2.ExpiresAt) {
		t.Fatalf("expiry not replaced: %v", got2.ExpiresAt)
	}

	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	got3, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got3 != nil {
		t.Fatalf("expected nil after delete, got %+v", got3)
	}
}

func TestDynamoStore_GetMissing(t *testing.T) {
	s := NewDynamoStore(newSimpleMock(), "sessions-table")
	got, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing identity")
	}
}
