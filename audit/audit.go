// Package audit provides the append-only, per-conversation-ordered event
// store that records every pipeline decision. Events live in memory for
// fast history lookups and are fanned out to durable sinks on append.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweetpotato0/docflow/pkg/logging"
)

// Event is one immutable audit record. Ordering within a conversation is
// generation order; events are never edited or removed.
type Event struct {
	ID             string         `json:"event_id" bson:"_id"`
	ConversationID string         `json:"conversation_id" bson:"conversation_id"`
	Timestamp      time.Time      `json:"timestamp" bson:"timestamp"`
	AgentName      string         `json:"agent_name" bson:"agent_name"`
	Status         string         `json:"status" bson:"status"`
	SourceID       string         `json:"source_identifier,omitempty" bson:"source_identifier,omitempty"`
	Format         string         `json:"format,omitempty" bson:"format,omitempty"`
	Intent         string         `json:"intent,omitempty" bson:"intent,omitempty"`
	ExtractedData  map[string]any `json:"extracted_data" bson:"extracted_data"`
	Details        map[string]any `json:"details" bson:"details"`
	ErrorMessage   string         `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

// Fields carries the caller-supplied parts of an event; the log assigns the
// ID and timestamp.
type Fields struct {
	ConversationID string
	AgentName      string
	Status         string
	SourceID       string
	Format         string
	Intent         string
	ExtractedData  map[string]any
	Details        map[string]any
	ErrorMessage   string
}

// Sink receives every appended event for durable storage.
type Sink interface {
	Append(ctx context.Context, e *Event) error
	Close() error
}

// Log is the in-memory conversation store plus durable sink fan-out. A single
// lock orders both the in-memory history and the sink appends, so per-
// conversation order in any durable record matches generation order.
type Log struct {
	mu      sync.Mutex
	history map[string][]*Event
	sinks   []Sink
	ids     idGenerator
	logger  *slog.Logger
}

// New creates a log writing to the given durable sinks. A log with no sinks
// keeps history in memory only.
func New(sinks ...Sink) *Log {
	return &Log{
		history: make(map[string][]*Event),
		sinks:   sinks,
		logger:  logging.WithComponent("audit"),
	}
}

// Append records a new event. A missing conversation ID is a programming
// error and is rejected. Sink failures are logged but do not fail the
// append: the audit trail is a record of facts, and the in-memory history
// stays authoritative for the process lifetime.
func (l *Log) Append(ctx context.Context, f Fields) (*Event, error) {
	if f.ConversationID == "" {
		return nil, fmt.Errorf("audit: conversation ID is required")
	}

	e := &Event{
		ConversationID: f.ConversationID,
		AgentName:      f.AgentName,
		Status:         f.Status,
		SourceID:       f.SourceID,
		Format:         f.Format,
		Intent:         f.Intent,
		ExtractedData:  f.ExtractedData,
		Details:        f.Details,
		ErrorMessage:   f.ErrorMessage,
	}
	if e.ExtractedData == nil {
		e.ExtractedData = map[string]any{}
	}
	if e.Details == nil {
		e.Details = map[string]any{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = l.ids.next()
	e.Timestamp = time.Now().UTC()
	l.history[f.ConversationID] = append(l.history[f.ConversationID], e)

	for _, sink := range l.sinks {
		if err := sink.Append(ctx, e); err != nil {
			l.logger.Error("durable append failed",
				"conversation_id", e.ConversationID,
				"event_id", e.ID,
				"error", err,
			)
		}
	}

	return e, nil
}

// History returns the events for a conversation in generation order. The
// returned slice is a copy; the events themselves are shared and must not
// be mutated.
func (l *Log) History(conversationID string) []*Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := l.history[conversationID]
	out := make([]*Event, len(events))
	copy(out, events)
	return out
}

// Last returns the most recent event for a conversation, or nil.
func (l *Log) Last(conversationID string) *Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := l.history[conversationID]
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

// Conversations returns every known conversation ID.
func (l *Log) Conversations() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.history))
	for id := range l.history {
		ids = append(ids, id)
	}
	return ids
}

// Close closes all sinks.
func (l *Log) Close() error {
	var firstErr error
	for _, sink := range l.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// idGenerator produces unique event IDs with minimal syscall overhead:
// time.Now is consulted once per call and a counter disambiguates events
// generated within the same nanosecond.
type idGenerator struct {
	lastTs  int64
	counter int64
}

func (g *idGenerator) next() string {
	now := time.Now().UnixNano()
	if now > g.lastTs {
		g.lastTs = now
		g.counter = 0
		return fmt.Sprintf("evt_%d", now)
	}
	g.counter++
	return fmt.Sprintf("evt_%d_%d", now, g.counter)
}
