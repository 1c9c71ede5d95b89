package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for TrackEventRequest to ensure the
	// known event types carry the payload fields the pipeline expects.
	v.RegisterStructValidation(trackEventStructValidation, TrackEventRequest{})

	return v
}

// trackEventStructValidation checks payload completeness per event type.
// Unknown event types pass through unchecked; the enumeration is open.
func trackEventStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(TrackEventRequest)

	requirePayload := func(field string) {
		if _, ok := req.Payload[field]; !ok {
			sl.ReportError(req.Payload, "payload", "Payload", "payload_field_required", field)
		}
	}

	switch req.EventType {
	case "view_product":
		requirePayload("product_id")
	case "add_to_cart":
		requirePayload("product_id")
		requirePayload("quantity")
	case "click_category":
		requirePayload("category_id")
	}
}
