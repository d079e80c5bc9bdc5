package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type amqpPublisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher dials RabbitMQ and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("connected to amqp", zap.String("exchange", exchange))
	return &amqpPublisher{conn: conn, exchange: exchange, logger: logger}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	msgID := msg.Meta.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	cid := msg.Meta.CorrelationID
	if cid == "" {
		cid = msgID
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msgID,
		CorrelationId: cid,
		Timestamp:     time.Now(),
		Type:          msg.Meta.Type,
		Body:          body,
	})
	if err == nil {
		p.logger.Debug("published event", zap.String("key", key), zap.String("exchange", p.exchange))
	}
	return err
}

func (p *amqpPublisher) Close() error {
	return p.conn.Close()
}
