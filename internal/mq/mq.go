package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
)

// ErrDisabled is returned by NewBackend when MQ_BACKEND is "none".
var ErrDisabled = errors.New("message queue disabled")

const (
	attrEvent  = "event"
	attrUserID = "user_id"

	eventUsageCreated = "usage.created"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// NewBackend connects to the broker selected by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, ErrDisabled
	case "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// UsageEvent is the wire form of a usage record.
type UsageEvent struct {
	RecordID    int64     `json:"record_id"`
	UserID      int       `json:"user_id"`
	Topic       string    `json:"topic"`
	ContentType string    `json:"content_type"`
	Level       string    `json:"level"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUsageEvent(record types.UsageRecord) UsageEvent {
	return UsageEvent{
		RecordID:    record.ID,
		UserID:      record.UserID,
		Topic:       record.Topic,
		ContentType: record.ContentType,
		Level:       record.Level,
		Response:    record.Response,
		CreatedAt:   record.CreatedAt.UTC(),
	}
}

// Record converts the event back to a usage record.
func (e UsageEvent) Record() types.UsageRecord {
	return types.UsageRecord{
		ID:          e.RecordID,
		UserID:      e.UserID,
		Topic:       e.Topic,
		ContentType: e.ContentType,
		Level:       e.Level,
		Response:    e.Response,
		CreatedAt:   e.CreatedAt,
	}
}

// UsageHandler processes a decoded usage event.
type UsageHandler func(ctx context.Context, event UsageEvent) error

// MQ publishes and consumes usage events on a single channel.
type MQ struct {
	backend Backend
	channel string
	logger  logrus.FieldLogger
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend, channel string, logger logrus.FieldLogger) *MQ {
	return &MQ{
		backend: backend,
		channel: channel,
		logger:  logger,
	}
}

// PublishUsage sends record as a UsageEvent.
func (m *MQ) PublishUsage(ctx context.Context, record types.UsageRecord) error {
	data, err := json.Marshal(NewUsageEvent(record))
	if err != nil {
		return fmt.Errorf("encode usage event: %w", err)
	}

	id, err := m.backend.Publish(ctx, m.channel, data, map[string]string{
		attrEvent:  eventUsageCreated,
		attrUserID: strconv.Itoa(record.UserID),
	})
	if err != nil {
		return fmt.Errorf("publish usage event: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"message_id": id,
		"usage_id":   record.ID,
		"channel":    m.channel,
	}).Debug("usage event published")
	return nil
}

// SubscribeUsage consumes usage events until ctx is done. Messages that do
// not decode are acknowledged and dropped; handler errors are retried by the
// broker.
func (m *MQ) SubscribeUsage(ctx context.Context, handler UsageHandler) error {
	return m.backend.Subscribe(ctx, m.channel, func(ctx context.Context, msg Message) error {
		if event := msg.Attributes[attrEvent]; event != "" && event != eventUsageCreated {
			return nil
		}

		var event UsageEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			m.logger.WithError(err).WithField("message_id", msg.ID).Warn("dropping malformed usage event")
			return nil
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
