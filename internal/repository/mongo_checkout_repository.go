package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCheckoutRepository struct {
	collection *mongo.Collection
}

func NewMongoCheckoutRepository(db *mongo.Database) *MongoCheckoutRepository {
	return &MongoCheckoutRepository{
		collection: db.Collection("checkout_sessions"),
	}
}

func (m *MongoCheckoutRepository) GetSession(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession

	err := m.collection.FindOne(ctx, bson.M{"_id": checkoutID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	return &session, nil
}

func (m *MongoCheckoutRepository) GetSessionBySessionID(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession

	// A session can only ever have one live wizard; the newest wins if stale
	// ones linger past their TTL.
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	return &session, nil
}

func (m *MongoCheckoutRepository) SaveSession(ctx context.Context, session *domain.CheckoutSession) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	filter := bson.M{"_id": session.ID}
	update := bson.M{"$set": session}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}

	return nil
}

// AcquireSubmitLock flips submitting false->true in a single conditional
// update. Two concurrent submits race on the same document; Mongo serializes
// them and exactly one sees MatchedCount == 1.
func (m *MongoCheckoutRepository) AcquireSubmitLock(ctx context.Context, checkoutID string) error {
	filter := bson.M{"_id": checkoutID, "submitting": false}
	update := bson.M{"$set": bson.M{"submitting": true, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to acquire submit lock: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either the session is gone or a submission is already in flight.
		if _, getErr := m.GetSession(ctx, checkoutID); getErr != nil {
			return getErr
		}
		return ErrAlreadySubmitting
	}

	return nil
}

func (m *MongoCheckoutRepository) ReleaseSubmitLock(ctx context.Context, checkoutID string) error {
	filter := bson.M{"_id": checkoutID}
	update := bson.M{"$set": bson.M{"submitting": false, "updated_at": time.Now()}}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release submit lock: %w", err)
	}

	return nil
}

func (m *MongoCheckoutRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7 * 24 * 60 * 60), // 7 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
