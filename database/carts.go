package database

import (
	"context"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CartStore struct {
	coll *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{coll: db.Collection(cartsCollection)}
}

func (s *CartStore) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cart models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&cart); err != nil {
		return nil, notFound(err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save writes the cart only if nobody else saved it since it was read.
// A new cart (zero ID) is inserted; losing the insert race to another
// request for the same user is reported as ErrConflict as well.
func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()

	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		cart.Version = 1
		cart.CreatedAt = now
		cart.UpdatedAt = now
		if _, err := s.coll.InsertOne(ctx, cart); err != nil {
			cart.ID = primitive.NilObjectID
			cart.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	}

	filter := bson.M{"_id": cart.ID, "version": cart.Version}
	update := bson.M{"$set": bson.M{
		"items":     cart.Items,
		"updatedAt": now,
		"version":   cart.Version + 1,
	}}
	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (s *CartStore) Delete(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.coll.DeleteOne(ctx, bson.M{"user": userID})
	return err
}
