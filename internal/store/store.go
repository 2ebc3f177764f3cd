// Package store wraps the MongoDB client, collection handles, and index
// setup for the pipeline's three collections: trades, markets, pnls.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds one database handle and the three collections the pipeline
// writes to and queries.
type Store struct {
	client   *mongo.Client
	database *mongo.Database

	trades  *mongo.Collection
	markets *mongo.Collection
	pnls    *mongo.Collection
}

// Connect dials MongoDB, verifies connectivity with a ping bounded to 5s,
// and returns a Store ready for EnsureIndexes.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	return &Store{
		client:   client,
		database: db,
		trades:   db.Collection("trades"),
		markets:  db.Collection("markets"),
		pnls:     db.Collection("pnls"),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Trades, Markets, PnLs expose the raw collection handles for operations
// that don't fit the Store's own methods (e.g. bulk writes in
// internal/tradepersistence).
func (s *Store) Trades() *mongo.Collection  { return s.trades }
func (s *Store) Markets() *mongo.Collection { return s.markets }
func (s *Store) PnLs() *mongo.Collection    { return s.pnls }

// Client exposes the underlying *mongo.Client for session/transaction use.
func (s *Store) Client() *mongo.Client { return s.client }

// EnsureIndexes creates the unique and secondary indexes the pipeline
// requires. It's safe to call on every startup: CreateIndexes is idempotent
// for an index with an identical key pattern.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.trades.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bsonD("partition", 1, "offset", 1),
			Options: options.Index().SetUnique(true),
		},
		{Keys: bsonD("time", 1)},
	}); err != nil {
		return err
	}

	if _, err := s.markets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bsonD("partition", 1, "offset", 1),
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bsonD("startTime", 1, "endTime", 1),
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return err
	}

	if _, err := s.pnls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bsonD("marketStartTime", 1, "marketEndTime", 1),
			Options: options.Index().SetUnique(true),
		},
		{Keys: bsonD("createdAt", 1)},
	}); err != nil {
		return err
	}

	return nil
}
