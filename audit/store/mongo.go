package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/docflow/audit"
)

// MongoStore implements audit.Sink using MongoDB. Each event is one
// document; a monotonic sequence field per insert keeps conversation order
// reconstructable even when timestamps collide.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	seq        int64
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "docflow",
		Collection: "audit_events",
	}
}

type mongoEvent struct {
	Seq   int64        `bson:"seq"`
	Event *audit.Event `bson:"event"`
}

// NewMongoStore creates a new MongoDB-based audit sink.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)
	store := &MongoStore{client: client, collection: collection}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "event.conversation_id", Value: 1},
			{Key: "seq", Value: 1},
		},
	}

	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// Append inserts one event document.
func (s *MongoStore) Append(ctx context.Context, e *audit.Event) error {
	if e == nil {
		return fmt.Errorf("event cannot be nil")
	}

	s.seq++
	doc := mongoEvent{Seq: s.seq, Event: e}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// History retrieves a conversation's events in insertion order.
func (s *MongoStore) History(ctx context.Context, conversationID string) ([]*audit.Event, error) {
	filter := bson.M{"event.conversation_id": conversationID}

	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoEvent
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	events := make([]*audit.Event, len(docs))
	for i, d := range docs {
		events[i] = d.Event
	}
	return events, nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ping checks if the MongoDB connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
