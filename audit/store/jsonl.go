// Package store provides durable sinks for the audit log: a local JSONL
// file plus Redis, PostgreSQL, and MongoDB backends.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sweetpotato0/docflow/audit"
)

// JSONLStore appends events to a newline-delimited JSON file. Writes go
// through O_APPEND with a sync per event so a crash never loses an
// acknowledged append.
type JSONLStore struct {
	mu   sync.Mutex
	file *os.File
}

// NewJSONLStore opens (or creates) the audit file at path.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	return &JSONLStore{file: f}, nil
}

// Append writes one event as a single JSON line.
func (s *JSONLStore) Append(ctx context.Context, e *audit.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit file: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// ReadJSONL loads every event from a JSONL audit file, preserving file
// order. Useful for replaying a trail after restart.
func ReadJSONL(path string) ([]*audit.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit file: %w", err)
	}

	events := make([]*audit.Event, 0)
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		e := &audit.Event{}
		if err := dec.Decode(e); err != nil {
			return nil, fmt.Errorf("failed to decode audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}
