// Package bus implements the request/response substrate shared by the
// gateway and the domain services: a correlated envelope format, a caller
// that matches replies to in-flight requests, a method+path router for the
// service side, and the RabbitMQ plumbing underneath.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
)

// Envelope is the unit exchanged on every request and response topic.
// Status zero on a response means 200.
type Envelope struct {
	MsgID  string            `json:"msgId"`
	Method string            `json:"method,omitempty"`
	Path   string            `json:"path,omitempty"`
	Query  map[string]string `json:"query,omitempty"`
	Status int               `json:"status,omitempty"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

func (e Envelope) StatusOrOK() int {
	if e.Status == 0 {
		return 200
	}
	return e.Status
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](e Envelope) (T, error) {
	var t T
	if len(e.Data) == 0 {
		return t, fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(e.Data, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}

// MustData marshals v for use as an envelope payload. Marshal failures are
// programming errors (all payload types are plain structs and maps).
func MustData(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("bus: marshal payload: %v", err))
	}
	return b
}

// TopicPublisher is the outbound half of the broker connection. Both the
// Caller and the Router publish through it; tests swap in a fake.
type TopicPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
