package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goshop/storefront/internal/domain"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoRepository) AddLine(ctx context.Context, ownerID string, item domain.CartLineItem) error {
	now := time.Now()

	// The filter only matches a cart that does not hold this product yet.
	// A cart that already holds it matches nothing, the upsert then tries
	// to insert a second cart for the owner and trips the unique owner_id
	// index. That duplicate-key error is the signal that the line exists
	// (possibly pushed by a concurrent add) and the caller must increment
	// instead.
	filter := bson.M{
		"owner_id":         ownerID,
		"items.product_id": bson.M{"$ne": item.ProductID},
	}
	update := bson.M{
		"$push": bson.M{"items": item},
		"$set":  bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"owner_id":   ownerID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrLineExists
		}
		return fmt.Errorf("failed to add cart line: %w", err)
	}
	return nil
}

func (m *mongoRepository) IncrementLineQuantity(ctx context.Context, ownerID string, productID int64, delta int) error {
	filter := bson.M{
		"owner_id":         ownerID,
		"items.product_id": productID,
	}
	update := bson.M{
		"$inc": bson.M{"items.$[elem].quantity": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to increment line quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (m *mongoRepository) SetLineQuantity(ctx context.Context, ownerID, itemID string, quantity int) error {
	filter := bson.M{
		"owner_id": ownerID,
		"items.id": itemID,
	}
	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.id": itemID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to set line quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (m *mongoRepository) RemoveLine(ctx context.Context, ownerID, itemID string) error {
	filter := bson.M{"owner_id": ownerID}
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"id": itemID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	// $pull of an absent line matches the cart and modifies nothing, which
	// is exactly the idempotent-delete behaviour we want. A missing cart is
	// treated the same way.
	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	return nil
}

func (m *mongoRepository) SetCoupon(ctx context.Context, ownerID, code string) error {
	filter := bson.M{"owner_id": ownerID}

	var update bson.M
	if code == "" {
		update = bson.M{
			"$unset": bson.M{"coupon_code": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		}
	} else {
		update = bson.M{
			"$set": bson.M{
				"coupon_code": code,
				"updated_at":  time.Now(),
			},
		}
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set coupon: %w", err)
	}

	if result.MatchedCount == 0 && code != "" {
		return domain.ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) Clear(ctx context.Context, ownerID string) error {
	filter := bson.M{"owner_id": ownerID}
	update := bson.M{
		"$set": bson.M{
			"items":      []domain.CartLineItem{},
			"updated_at": time.Now(),
		},
		"$unset": bson.M{"coupon_code": ""},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
