package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/docflow/audit"
)

// PostgresStore implements audit.Sink using PostgreSQL. Events are inserted
// with a serial sequence column, so ordering survives identical timestamps.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "docflow",
		SSLMode:  "disable",
	}
}

// NewPostgresStore creates a new PostgreSQL-based audit sink.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_events (
		seq BIGSERIAL PRIMARY KEY,
		event_id VARCHAR(255) NOT NULL UNIQUE,
		conversation_id VARCHAR(255) NOT NULL,
		agent_name VARCHAR(255) NOT NULL,
		status VARCHAR(64) NOT NULL,
		source_identifier TEXT,
		format VARCHAR(32),
		intent VARCHAR(128),
		extracted_data JSONB,
		details JSONB,
		error_message TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_events_conversation ON audit_events(conversation_id, seq);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Append inserts one event. Events are immutable, so duplicates are an
// error rather than an upsert.
func (s *PostgresStore) Append(ctx context.Context, e *audit.Event) error {
	if e == nil {
		return fmt.Errorf("event cannot be nil")
	}

	extracted, err := json.Marshal(e.ExtractedData)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted data: %w", err)
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	query := `
	INSERT INTO audit_events
		(event_id, conversation_id, agent_name, status, source_identifier,
		 format, intent, extracted_data, details, error_message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.ExecContext(ctx, query,
		e.ID,
		e.ConversationID,
		e.AgentName,
		e.Status,
		e.SourceID,
		e.Format,
		e.Intent,
		string(extracted),
		string(details),
		e.ErrorMessage,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// History retrieves a conversation's events in insertion order.
func (s *PostgresStore) History(ctx context.Context, conversationID string) ([]*audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, conversation_id, agent_name, status, source_identifier,
		        format, intent, extracted_data, details, error_message, created_at
		 FROM audit_events
		 WHERE conversation_id = $1
		 ORDER BY seq ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]*audit.Event, 0)
	for rows.Next() {
		e := &audit.Event{}
		var extracted, details string

		err := rows.Scan(&e.ID, &e.ConversationID, &e.AgentName, &e.Status,
			&e.SourceID, &e.Format, &e.Intent, &extracted, &details,
			&e.ErrorMessage, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}

		e.ExtractedData = make(map[string]any)
		if extracted != "" {
			if err := json.Unmarshal([]byte(extracted), &e.ExtractedData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal extracted data: %w", err)
			}
		}
		e.Details = make(map[string]any)
		if details != "" {
			if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal details: %w", err)
			}
		}

		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Close closes the PostgreSQL connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks if the PostgreSQL connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
