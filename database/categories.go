package database

import (
	"context"
	"regexp"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryStore struct {
	coll *mongo.Collection
}

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{coll: db.Collection(categoriesCollection)}
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "name": 1, "description": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CategoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var category models.Category
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindByName matches the category name exactly, ignoring case.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}}
	var category models.Category
	if err := s.coll.FindOne(ctx, filter).Decode(&category); err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// MatchingIDs returns the ids of categories whose name contains term.
func (s *CategoryStore) MatchingIDs(ctx context.Context, term string) ([]primitive.ObjectID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"name": searchRegex(term)}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	category.ID = primitive.NewObjectID()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := s.coll.InsertOne(ctx, category)
	return duplicate(err)
}

func (s *CategoryStore) Update(ctx context.Context, id primitive.ObjectID, name, description *string) (*models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if name != nil {
		set["name"] = *name
	}
	if description != nil {
		set["description"] = *description
	}

	var category models.Category
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&category)
	if err != nil {
		return nil, duplicate(notFound(err))
	}
	return &category, nil
}

func (s *CategoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CategoryStore) InsertMany(ctx context.Context, categories []models.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	docs := make([]interface{}, 0, len(categories))
	for i := range categories {
		docs = append(docs, categories[i])
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := s.coll.InsertMany(ctx, docs)
	return duplicate(err)
}

func (s *CategoryStore) DeleteAll(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.coll.DeleteMany(ctx, bson.M{})
	return err
}
