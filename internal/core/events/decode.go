package events

import (
	"encoding/json"
	"fmt"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
)

// Decode reconstructs a typed domain event from its serialized payload.
// It is the single decoding point shared by the HTTP intake and the
// replay of logged events.
func Decode(eventType domain.EventType, payload []byte) (domain.Event, error) {
	switch eventType {
	case domain.EnrollmentCreated:
		var ev domain.EnrollmentCreatedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", eventType, err)
		}
		return &ev, nil
	case domain.PaymentPaid:
		var ev domain.PaymentPaidEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", eventType, err)
		}
		return &ev, nil
	case domain.EnrollmentCompleted:
		var ev domain.EnrollmentCompletedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", eventType, err)
		}
		return &ev, nil
	case domain.RefundCreated:
		var ev domain.RefundCreatedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", eventType, err)
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q: %w", eventType, apperrors.ErrValidation)
	}
}
