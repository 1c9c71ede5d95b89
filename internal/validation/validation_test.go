package validation

import (
	"testing"
)

func TestAddToCartRequest_Valid(t *testing.T) {
	v := New()

	req := AddToCartRequest{ProductID: 42, Quantity: 2}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	// quantity omitted is fine; handlers default it to 1
	req = AddToCartRequest{ProductID: 42}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid without quantity, got error: %v", err)
	}
}

func TestAddToCartRequest_Invalid(t *testing.T) {
	v := New()

	if err := v.Struct(AddToCartRequest{Quantity: 1}); err == nil {
		t.Fatal("expected validation error for missing product_id, got nil")
	}
	if err := v.Struct(AddToCartRequest{ProductID: 42, Quantity: -3}); err == nil {
		t.Fatal("expected validation error for negative quantity, got nil")
	}
}

func TestTrackEventRequest_KnownTypesRequirePayloadFields(t *testing.T) {
	v := New()

	ok := TrackEventRequest{
		EventType: "view_product",
		Payload:   map[string]any{"product_id": 7},
	}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	missing := TrackEventRequest{EventType: "view_product"}
	if err := v.Struct(missing); err == nil {
		t.Fatal("expected validation error for missing product_id payload, got nil")
	}

	partial := TrackEventRequest{
		EventType: "add_to_cart",
		Payload:   map[string]any{"product_id": 7},
	}
	if err := v.Struct(partial); err == nil {
		t.Fatal("expected validation error for missing quantity payload, got nil")
	}
}

func TestTrackEventRequest_UnknownTypePassesThrough(t *testing.T) {
	v := New()

	// the event type enumeration is open; unknown types carry any payload
	req := TrackEventRequest{EventType: "checkout_started"}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected unknown event type to validate, got error: %v", err)
	}
}

func TestTrackEventRequest_MissingType(t *testing.T) {
	v := New()

	if err := v.Struct(TrackEventRequest{}); err == nil {
		t.Fatal("expected validation error for missing event_type, got nil")
	}
}
