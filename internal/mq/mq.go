package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/types"
	"go.uber.org/zap"
)

// ListingEventsChannel carries types.ListingEvent payloads.
const ListingEventsChannel = "listing-events"

const attrEventType = "event_type"

// ErrDiscard marks a message that must not be redelivered.
var ErrDiscard = errors.New("discard message")

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack, or an
// error wrapping ErrDiscard to drop the message.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with the listing event API.
type MQ struct {
	backend Backend
	logger  *zap.Logger
}

// New wraps backend. A nil logger disables logging.
func New(backend Backend, logger *zap.Logger) *MQ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQ{backend: backend, logger: logger}
}

// Open builds the backend selected by cfg.Backend. An empty backend yields a
// publisher that drops every event.
func Open(ctx context.Context, cfg config.MQConfig, logger *zap.Logger) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		backend = Noop{}
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return New(backend, logger), nil
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// PublishListingEvent encodes event as JSON on ListingEventsChannel.
func (m *MQ) PublishListingEvent(ctx context.Context, event types.ListingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = m.backend.Publish(ctx, ListingEventsChannel, data, map[string]string{
		attrEventType: string(event.Type),
	})
	return err
}

// SubscribeListingEvents decodes ListingEventsChannel messages and passes
// them to handler until ctx ends. Undecodable messages are dropped.
func (m *MQ) SubscribeListingEvents(ctx context.Context, handler func(context.Context, types.ListingEvent) error) error {
	return m.backend.Subscribe(ctx, ListingEventsChannel, func(ctx context.Context, msg Message) error {
		var event types.ListingEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			m.logger.Warn("evento de mascota descartado: payload inválido",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			return fmt.Errorf("%w: %v", ErrDiscard, err)
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

// Noop is a Backend that accepts and drops every message.
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

// Subscribe blocks until ctx ends; nothing is ever delivered.
func (Noop) Subscribe(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Noop) Close() error {
	return nil
}
