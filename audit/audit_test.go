package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type captureSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (s *captureSink) Append(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Close() error { return nil }

func TestAppendRequiresConversationID(t *testing.T) {
	log := New()
	_, err := log.Append(context.Background(), Fields{AgentName: "router"})
	if err == nil {
		t.Fatal("expected error for missing conversation ID")
	}
}

func TestHistoryPreservesAppendOrder(t *testing.T) {
	log := New()
	ctx := context.Background()

	statuses := []string{"Received", "Classified", "Processed"}
	for _, status := range statuses {
		if _, err := log.Append(ctx, Fields{ConversationID: "c1", Status: status}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events := log.History("c1")
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, status := range statuses {
		if events[i].Status != status {
			t.Errorf("event %d: status = %q, want %q", i, events[i].Status, status)
		}
	}
	if last := log.Last("c1"); last == nil || last.Status != "Processed" {
		t.Errorf("Last = %v, want Processed", last)
	}
}

func TestHistoryIsolatesConversations(t *testing.T) {
	log := New()
	ctx := context.Background()

	log.Append(ctx, Fields{ConversationID: "c1", Status: "Received"})
	log.Append(ctx, Fields{ConversationID: "c2", Status: "Received"})
	log.Append(ctx, Fields{ConversationID: "c1", Status: "Classified"})

	if got := len(log.History("c1")); got != 2 {
		t.Errorf("c1 history length = %d, want 2", got)
	}
	if got := len(log.History("c2")); got != 1 {
		t.Errorf("c2 history length = %d, want 1", got)
	}
	if got := len(log.History("missing")); got != 0 {
		t.Errorf("unknown conversation history length = %d, want 0", got)
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	log := New()
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		e, err := log.Append(ctx, Fields{ConversationID: "c1", Status: "Received"})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if _, dup := seen[e.ID]; dup {
			t.Fatalf("duplicate event ID %q", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
}

func TestSinkReceivesEventsInOrder(t *testing.T) {
	sink := &captureSink{}
	log := New(sink)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		log.Append(ctx, Fields{
			ConversationID: "c1",
			Status:         fmt.Sprintf("step-%d", i),
		})
	}

	if len(sink.events) != 5 {
		t.Fatalf("sink received %d events, want 5", len(sink.events))
	}
	for i, e := range sink.events {
		if want := fmt.Sprintf("step-%d", i); e.Status != want {
			t.Errorf("sink event %d: status = %q, want %q", i, e.Status, want)
		}
	}
}

func TestSinkFailureDoesNotFailAppend(t *testing.T) {
	sink := &captureSink{err: errors.New("disk full")}
	log := New(sink)

	e, err := log.Append(context.Background(), Fields{ConversationID: "c1", Status: "Received"})
	if err != nil {
		t.Fatalf("Append should not fail on sink error: %v", err)
	}
	if e == nil {
		t.Fatal("expected event despite sink failure")
	}
	if got := len(log.History("c1")); got != 1 {
		t.Errorf("in-memory history length = %d, want 1", got)
	}
}

func TestConcurrentAppendsAllRecorded(t *testing.T) {
	log := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				log.Append(ctx, Fields{
					ConversationID: fmt.Sprintf("c%d", n),
					Status:         "Received",
				})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		if got := len(log.History(fmt.Sprintf("c%d", i))); got != 20 {
			t.Errorf("conversation c%d: %d events, want 20", i, got)
		}
	}
}

func TestAppendDefaultsMaps(t *testing.T) {
	log := New()
	e, err := log.Append(context.Background(), Fields{ConversationID: "c1"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.ExtractedData == nil || e.Details == nil {
		t.Error("extracted data and details should default to empty maps")
	}
}
