package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WriteMarketAndPnL atomically inserts a market document and its derived
// PnL document within one transaction. A duplicate key on either document
// means a concurrent writer already processed this interval; that's
// reported via skipped=true rather than as an error.
func (s *Store) WriteMarketAndPnL(ctx context.Context, market MarketDoc, pnl PnLDoc) (skipped bool, err error) {
	session, err := s.client.StartSession()
	if err != nil {
		return false, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.markets.InsertOne(sessCtx, market); err != nil {
			return nil, err
		}
		if _, err := s.pnls.InsertOne(sessCtx, pnl); err != nil {
			return nil, err
		}
		return nil, nil
	})

	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}

// MarketExists reports whether a market document for (start, end) has
// already been durably written, used by C4's idempotency check on a cache
// miss.
func (s *Store) MarketExists(ctx context.Context, start, end time.Time) (bool, error) {
	filter := bson.M{"startTime": start, "endTime": end}
	err := s.markets.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
