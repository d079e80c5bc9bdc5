// Package broker forwards domain events to an external message broker.
package broker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/config"
)

// Meta describes an envelope.
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Time          time.Time `json:"time"`
	Subject       string    `json:"subject,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Envelope is the JSON body sent to the broker.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// Publisher sends envelopes keyed by a routing key (AMQP) or message key (Kafka).
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

// New builds the publisher selected by cfg.Sink.
func New(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Sink {
	case "", config.SinkNone:
		return noopPublisher{}, nil
	case config.SinkAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	case config.SinkKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	default:
		return nil, fmt.Errorf("unknown events sink %q", cfg.Sink)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, Envelope) error { return nil }
func (noopPublisher) Close() error                                    { return nil }
