package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/goshop/storefront/internal/domain"
)

// Store is the product catalog backed by MongoDB. Stock movements are single
// conditional updates so that two concurrent order placements can never both
// take the last unit.
type Store struct {
	collection *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		collection: db.Collection("products"),
	}
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product

	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	return &product, nil
}

// DecrementStock performs an atomic check-and-decrement: the update only
// matches when the remaining stock covers the quantity, so the stock level
// can never go negative. A non-match is reported as OutOfStockError (or
// ErrProductNotFound when the product does not exist at all).
func (s *Store) DecrementStock(ctx context.Context, id int64, quantity int) error {
	filter := bson.M{
		"_id":   id,
		"stock": bson.M{"$gte": quantity},
	}
	update := bson.M{"$inc": bson.M{"stock": -quantity}}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for product %d: %w", id, err)
	}

	if result.MatchedCount == 0 {
		product, lookupErr := s.GetProduct(ctx, id)
		if lookupErr != nil {
			return lookupErr
		}
		return &domain.OutOfStockError{
			ProductID: id,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	return nil
}

// IncrementStock returns previously decremented stock. Used to compensate a
// partially completed order placement.
func (s *Store) IncrementStock(ctx context.Context, id int64, quantity int) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": quantity}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment stock for product %d: %w", id, err)
	}
	return nil
}
