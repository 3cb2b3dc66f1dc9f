package producer

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/segmentio/kafka-go"

	"logbook/config"
	"logbook/internal/models"
)

func TestToMessage_KeyedByEntry(t *testing.T) {
	ev := &models.LogEvent{
		EventID:    "9b2f7c1e-0000-4000-8000-000000000001",
		Type:       models.EventArchived,
		EntryID:    "5d0c2a44-0000-4000-8000-000000000002",
		Text:       "fed baby",
		Timestamp:  "2024-01-02T03:04:05Z",
		Archived:   true,
		OccurredAt: "2024-01-02T03:05:00Z",
	}

	msg, err := toMessage(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg.Key) != ev.EntryID {
		t.Errorf("key = %q, want entry id %q", msg.Key, ev.EntryID)
	}

	var got models.LogEvent
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("value is not a LogEvent: %v", err)
	}
	if got != *ev {
		t.Errorf("value = %+v, want %+v", got, *ev)
	}
}

func TestNewKafkaProducer_HashBalancer(t *testing.T) {
	p, err := NewKafkaProducer(config.KafkaProducerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "logbook.events",
	}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Errorf("balancer = %T, want *kafka.Hash", p.writer.Balancer)
	}
}

func TestNewKafkaProducer_RequiresBrokersAndTopic(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	if _, err := NewKafkaProducer(config.KafkaProducerConfig{Topic: "t"}, logger); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewKafkaProducer(config.KafkaProducerConfig{Brokers: []string{"b:9092"}}, logger); err == nil {
		t.Error("expected error without topic")
	}
}
