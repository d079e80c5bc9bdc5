package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/config"
)

func TestNew_NoneSink(t *testing.T) {
	pub, err := New(config.EventsConfig{Sink: config.SinkNone}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pub.Publish(context.Background(), "k", Envelope{}); err != nil {
		t.Errorf("noop Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("noop Close: %v", err)
	}
}

func TestNew_UnknownSink(t *testing.T) {
	if _, err := New(config.EventsConfig{Sink: "carrier-pigeon"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}

func TestKafkaPublisher_SendsEnvelope(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewKafkaConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Meta.Type != "work_item_reassigned" {
			return fmt.Errorf("meta.type = %q", env.Meta.Type)
		}
		return nil
	})

	pub := newKafkaPublisher(producer, "presence-events", zap.NewNop())
	err := pub.Publish(context.Background(), "lead-1", Envelope{
		Meta: Meta{ID: "e1", Type: "work_item_reassigned", Time: time.Now()},
		Data: map[string]string{"work_item_id": "lead-1"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
