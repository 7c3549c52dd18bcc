package queue

import (
	"context"
	"testing"
	"time"
)

func TestNewMessageEncodesBody(t *testing.T) {
	msg, err := NewMessage("appointment.booked", map[string]int{"appointment_id": 7})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID == "" {
		t.Fatal("message id not set")
	}
	if msg.Type != "appointment.booked" {
		t.Fatalf("type = %s", msg.Type)
	}
	if string(msg.Body) != `{"appointment_id":7}` {
		t.Fatalf("body = %s", msg.Body)
	}
}

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	msg, err := NewMessage("appointment.cancelled", map[string]int{"appointment_id": 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatal(err)
	}

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-out:
		if got.ID != msg.ID || got.Type != msg.Type {
			t.Fatalf("got %+v, want %+v", got, msg)
		}
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg, err := NewMessage("appointment.booked", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Publish(ctx, msg); err == nil {
		t.Fatal("publish on cancelled context succeeded")
	}
}
