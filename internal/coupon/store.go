package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goshop/storefront/internal/domain"
)

// Store is the coupon registry backed by MongoDB. Codes are stored
// normalized to upper-case; lookups normalize the same way so matching is
// case-insensitive.
type Store struct {
	collection *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		collection: db.Collection("coupons"),
	}
}

// Normalize upper-cases and trims a coupon code for lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.CouponRule, error) {
	var rule domain.CouponRule

	err := s.collection.FindOne(ctx, bson.M{"code": Normalize(code)}).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("failed to look up coupon %q: %w", code, err)
	}

	return &rule, nil
}

// Redeem increments used_count by one, but only while the usage limit has
// not been reached. The condition and the increment are a single update, so
// concurrent redemptions can not both slip past the limit.
func (s *Store) Redeem(ctx context.Context, code string) error {
	filter := bson.M{
		"code":   Normalize(code),
		"active": true,
		"$or": bson.A{
			bson.M{"usage_limit": bson.M{"$exists": false}},
			bson.M{"usage_limit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
		},
	}
	update := bson.M{"$inc": bson.M{"used_count": 1}}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to redeem coupon %q: %w", code, err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrInvalidCoupon
	}

	return nil
}

// Release undoes a redemption when order placement fails after the coupon
// was already counted.
func (s *Store) Release(ctx context.Context, code string) error {
	filter := bson.M{
		"code":       Normalize(code),
		"used_count": bson.M{"$gt": 0},
	}
	update := bson.M{"$inc": bson.M{"used_count": -1}}

	if _, err := s.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release coupon %q: %w", code, err)
	}
	return nil
}

func (s *Store) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	if _, err := s.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create coupon indexes: %w", err)
	}
	return nil
}
