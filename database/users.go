package database

import (
	"context"
	"strings"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Addresses == nil {
		user.Addresses = []models.Address{} // Initialize empty addresses array
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.coll.InsertOne(ctx, user)
	return duplicate(err)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}

	var user models.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) clearDefaultAddress(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"addresses.$[].isDefault": false}})
	return err
}

func (s *UserStore) AddAddress(ctx context.Context, userID primitive.ObjectID, address *models.Address) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	address.CreatedAt = now
	address.UpdatedAt = now

	// If this is set as default, unset others
	if address.IsDefault {
		if err := s.clearDefaultAddress(ctx, userID); err != nil {
			return err
		}
	}

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$push": bson.M{"addresses": address},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) ReplaceAddress(ctx context.Context, userID primitive.ObjectID, address *models.Address) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if address.IsDefault {
		if err := s.clearDefaultAddress(ctx, userID); err != nil {
			return err
		}
	}

	address.UpdatedAt = time.Now()
	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{"elem._id": address.ID}},
	}
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "addresses._id": address.ID},
		bson.M{"$set": bson.M{"addresses.$[elem]": address, "updatedAt": address.UpdatedAt}},
		options.Update().SetArrayFilters(arrayFilters),
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) RemoveAddress(ctx context.Context, userID, addressID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "addresses._id": addressID},
		bson.M{
			"$pull": bson.M{"addresses": bson.M{"_id": addressID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
