package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() failed: %v", err)
	}

	want := Message{Type: TypeCheckin, SubjectID: "evt-1"}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	select {
	case got := <-msgs:
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryPublishHonorsCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	// Fill the buffer, then cancel: the next publish must not block.
	if err := q.Publish(ctx, Message{Type: TypeTokenIssued, SubjectID: "tok-1"}); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	cancel()
	if err := q.Publish(ctx, Message{Type: TypeTokenIssued, SubjectID: "tok-2"}); err == nil {
		t.Fatal("Publish() on a canceled context should fail")
	}
}

func TestConsumeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() failed: %v", err)
	}
	cancel()
	select {
	case _, open := <-msgs:
		if open {
			t.Error("channel should close after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
