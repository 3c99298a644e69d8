// Package mongo implements the event and user repositories on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	eventsCollection = "events"
	usersCollection  = "users"
)

// Store owns the client connection and the collections used by the repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("stargazer"))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, mapErr("ping", err)
	}
	return &Store{client: client, db: client.Database(database), logger: logger}, nil
}

// EnsureIndexes creates the geospatial and expiry indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(eventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "endDate", Value: 1}}},
		{Keys: bson.D{{Key: "startDate", Value: 1}}},
	})
	if err != nil {
		return mapErr("create indexes", err)
	}
	s.logger.Info("mongo indexes ready", "database", s.db.Name())
	return nil
}

// CheckReadiness pings the primary.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return mapErr("ping", err)
	}
	return nil
}

// Events returns the event repository backed by this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{coll: s.db.Collection(eventsCollection)}
}

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("mongo %s: %w: %w", op, domain.ErrTransient, err)
	default:
		return fmt.Errorf("mongo %s: %w", op, err)
	}
}
