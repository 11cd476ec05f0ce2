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

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoCartRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *MongoCartRepository) AddLine(ctx context.Context, sessionID string, line domain.CartLine) error {
	now := time.Now()
	line.AddedAt = now

	filter := bson.M{"session_id": sessionID}

	// First, check if cart exists
	var existing domain.Cart
	err := m.collection.FindOne(ctx, filter).Decode(&existing)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Cart doesn't exist, create it with the line
			cart := &domain.Cart{
				SessionID: sessionID,
				Lines:     []domain.CartLine{line},
				CreatedAt: now,
				UpdatedAt: now,
			}

			_, err = m.collection.InsertOne(ctx, cart)
			if err != nil {
				return fmt.Errorf("failed to create cart with line: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing cart: %w", err)
	}

	// Same product and variant merges into the existing line by incrementing
	// its quantity; a different variant is a separate line.
	if match := existing.FindLine(line.ProductID, line.VariantID); match != nil {
		update := bson.M{
			"$inc": bson.M{"lines.$[elem].quantity": line.Quantity},
			"$set": bson.M{"updated_at": now},
		}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.line_id": match.LineID},
			},
		})

		_, err = m.collection.UpdateOne(ctx, filter, update, arrayFilters)
		if err != nil {
			return fmt.Errorf("failed to merge line: %w", err)
		}
		return nil
	}

	update := bson.M{
		"$push": bson.M{"lines": line},
		"$set":  bson.M{"updated_at": now},
	}

	_, err = m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add new line: %w", err)
	}

	return nil
}

func (m *MongoCartRepository) UpdateLineQuantity(ctx context.Context, sessionID, lineID string, quantity int) error {
	// Quantity zero or below means the line goes away.
	if quantity <= 0 {
		return m.RemoveLine(ctx, sessionID, lineID)
	}

	filter := bson.M{
		"session_id":    sessionID,
		"lines.line_id": lineID,
	}

	update := bson.M{
		"$set": bson.M{
			"lines.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.line_id": lineID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update line quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (m *MongoCartRepository) RemoveLine(ctx context.Context, sessionID, lineID string) error {
	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$pull": bson.M{
			"lines": bson.M{"line_id": lineID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove line: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) SetCustomerInfo(ctx context.Context, sessionID string, info domain.CustomerInfo) error {
	return m.setDraft(ctx, sessionID, bson.M{"customer": info})
}

func (m *MongoCartRepository) SetShippingAddress(ctx context.Context, sessionID string, addr domain.Address) error {
	return m.setDraft(ctx, sessionID, bson.M{"shipping": addr})
}

// setDraft replaces a buyer draft wholesale. Drafts only make sense on a cart
// that exists, so a missing document is an error rather than an upsert.
func (m *MongoCartRepository) setDraft(ctx context.Context, sessionID string, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := m.collection.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to set draft: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
