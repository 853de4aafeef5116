// Package events publica los eventos del asistente de alta en Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
)

var _ provisioning.EventPublisher = (*Publisher)(nil)

// Envelope forma de cada entrada del stream (campo "event").
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Publisher escribe eventos con XADD. maxLen > 0 recorta el stream de forma aproximada.
type Publisher struct {
	client *redis.Client
	maxLen int64
}

// NewPublisher construye el publicador sobre un cliente ya conectado.
func NewPublisher(client *redis.Client, maxLen int64) *Publisher {
	return &Publisher{client: client, maxLen: maxLen}
}

// Publish agrega el evento al stream.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	eventJSON, err := json.Marshal(Envelope{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("events: serializar evento: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"type":  eventType,
			"event": eventJSON,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("events: publicar %s: %w", eventType, err)
	}
	return nil
}

// Ping verifica la conexión (lo usa /health).
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
