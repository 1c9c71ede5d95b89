package validation

// AddToCartRequest is the payload for POST /cart.
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`         // upstream product id
	Quantity  int   `json:"quantity" validate:"omitempty,min=1"`    // defaults to 1 when omitted
}

// TrackEventRequest is the payload for POST /events.
type TrackEventRequest struct {
	EventType string         `json:"event_type" validate:"required"` // e.g. view_product
	Payload   map[string]any `json:"payload,omitempty"`              // event-specific fields
}
