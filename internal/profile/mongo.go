package profile

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is shared with account records written elsewhere; only the
// profile fields are ever updated.
const Collection = "users"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(Collection)}
}

func (m *MongoRepository) Get(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	err := m.coll.FindOne(ctx, bson.M{"email": email}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (m *MongoRepository) Upsert(ctx context.Context, p *Profile) error {
	update := bson.M{"$set": bson.M{
		"name":            p.Name,
		"phoneNumber":     p.PhoneNumber,
		"shippingAddress": p.ShippingAddress,
		"updatedAt":       p.UpdatedAt,
	}}
	_, err := m.coll.UpdateOne(ctx, bson.M{"email": p.Email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
