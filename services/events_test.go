package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

func TestMultiPublisherFansOut(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	boom := errors.New("boom")
	multi := MultiPublisher{a, failingPublisher{boom}, nil, b}

	err := multi.Publish(context.Background(), Event{Type: EventNeedCreated, EntityID: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if len(a.types()) != 1 || len(b.types()) != 1 {
		t.Fatal("every publisher should receive the event")
	}

	// emit only logs
	emit(context.Background(), multi, Event{Type: EventTaskAccepted, EntityID: 2})
}

func TestKafkaMessage(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := kafkaMessage(Event{Type: EventTaskCompleted, EntityID: 42, ProviderID: 7, OccurredAt: at})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Key) != "task.completed:42" {
		t.Fatalf("unexpected key %s", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "task.completed" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ProviderID != 7 || !decoded.OccurredAt.Equal(at) {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestErrorKinds(t *testing.T) {
	err := conflict("service need already accepted")
	if !errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		t.Fatal("Is should match by kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("plain errors are internal")
	}
	if MessageOf(errors.New("db down")) != "internal server error" {
		t.Fatal("internal details must not leak")
	}
}
