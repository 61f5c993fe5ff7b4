package dto

import "encoding/json"

// EventEnvelope is the wire form of an inbound domain event: a type
// discriminator plus the raw payload decoded per event type.
type EventEnvelope struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}
