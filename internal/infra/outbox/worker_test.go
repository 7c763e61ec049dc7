package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	appoutbox "carmarket/internal/app/outbox"
	"carmarket/internal/infra/storage/memory"
)

type publishedMessage struct {
	Topic   string
	Key     string
	Payload []byte
	Headers map[string]string
}

type fakeProducer struct {
	messages []publishedMessage
	fail     error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.messages = append(p.messages, publishedMessage{Topic: topic, Key: key, Payload: payload, Headers: headers})
	return nil
}

func stageRecord(t *testing.T, box *memory.Outbox, id, name string) {
	t.Helper()
	ctx := context.Background()
	err := box.Add(ctx, appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		OccurredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "bk-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	})
	if err != nil {
		t.Fatalf("staging record: %v", err)
	}
	if err := box.Flush(ctx); err != nil {
		t.Fatalf("flushing outbox: %v", err)
	}
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	box := memory.NewOutbox()
	stageRecord(t, box, "ev-1", "booking.confirmed")
	producer := &fakeProducer{}
	w := &Worker{Source: NewMemorySource(box), Producer: producer, ID: "w1"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce returned error: %v", err)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(producer.messages))
	}

	msg := producer.messages[0]
	if msg.Topic != "booking.events.v1" {
		t.Fatalf("topic = %s, want booking.events.v1", msg.Topic)
	}
	if msg.Key != "bk-1" {
		t.Fatalf("key = %s, want aggregate id", msg.Key)
	}
	if msg.Headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("content-type = %s, want cloudevents", msg.Headers["content-type"])
	}

	var envelope map[string]any
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if envelope["type"] != "booking.confirmed.v1" {
		t.Fatalf("type = %v, want booking.confirmed.v1", envelope["type"])
	}
	if envelope["specversion"] != "1.0" {
		t.Fatalf("specversion = %v, want 1.0", envelope["specversion"])
	}
	if envelope["traceparent"] != "00-abc-def-01" {
		t.Fatalf("traceparent = %v, want passthrough", envelope["traceparent"])
	}

	// Queue is empty afterwards.
	left, err := box.Drain(context.Background(), 10)
	if err != nil {
		t.Fatalf("draining: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("queue still holds %d records", len(left))
	}
}

func TestWorkerTopicPrefix(t *testing.T) {
	box := memory.NewOutbox()
	stageRecord(t, box, "ev-1", "payment.recorded")
	producer := &fakeProducer{}
	w := &Worker{Source: NewMemorySource(box), Producer: producer, TopicPrefix: "staging.", ID: "w1"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce returned error: %v", err)
	}
	if producer.messages[0].Topic != "staging.payment.events.v1" {
		t.Fatalf("topic = %s, want staging.payment.events.v1", producer.messages[0].Topic)
	}
}

func TestWorkerRequeuesOnPublishFailure(t *testing.T) {
	box := memory.NewOutbox()
	stageRecord(t, box, "ev-1", "booking.requested")
	producer := &fakeProducer{fail: errors.New("broker down")}
	w := &Worker{Source: NewMemorySource(box), Producer: producer, ID: "w1"}
	ctx := context.Background()

	if err := w.processOnce(ctx); err != nil {
		t.Fatalf("processOnce returned error: %v", err)
	}

	// The record is back in the queue with its payload intact.
	producer.fail = nil
	if err := w.processOnce(ctx); err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("published %d messages after retry, want 1", len(producer.messages))
	}
}

func TestWorkerIdleWithoutRecords(t *testing.T) {
	box := memory.NewOutbox()
	producer := &fakeProducer{}
	w := &Worker{Source: NewMemorySource(box), Producer: producer, ID: "w1"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce on empty queue: %v", err)
	}
	if len(producer.messages) != 0 {
		t.Fatalf("published %d messages, want 0", len(producer.messages))
	}
}

func TestWorkerRunRequiresDependencies(t *testing.T) {
	w := &Worker{}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("got %v, want ErrWorkerNotConfigured", err)
	}
}
