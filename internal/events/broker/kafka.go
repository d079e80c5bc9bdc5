package broker

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaConfig returns the producer settings used for event publishing.
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	// keyed by counselor or work item id so one subject's events stay ordered
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// NewKafkaPublisher opens a sync producer against brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("connected to kafka", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return newKafkaPublisher(producer, topic, logger), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, logger *zap.Logger) *kafkaPublisher {
	return &kafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *kafkaPublisher) Publish(_ context.Context, key string, msg Envelope) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if msg.Meta.Subject != "" {
		key = msg.Meta.Subject
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(msg.Meta.Type)},
		},
	})
	if err != nil {
		return err
	}
	p.logger.Debug("published event",
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
