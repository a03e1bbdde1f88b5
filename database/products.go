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

type ProductStore struct {
	coll       *mongo.Collection
	categories *CategoryStore
}

func NewProductStore(db *mongo.Database, categories *CategoryStore) *ProductStore {
	return &ProductStore{coll: db.Collection(productsCollection), categories: categories}
}

// searchRegex builds a case-insensitive substring match for user input.
func searchRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

func productMatch(q models.ProductQuery, searchCategoryIDs []primitive.ObjectID) bson.M {
	match := bson.M{}

	if q.Search != "" {
		or := bson.A{
			bson.M{"name": searchRegex(q.Search)},
			bson.M{"description": searchRegex(q.Search)},
		}
		if len(searchCategoryIDs) > 0 {
			or = append(or, bson.M{"category": bson.M{"$in": searchCategoryIDs}})
		}
		match["$or"] = or
	}

	if q.CategoryID != nil {
		match["category"] = *q.CategoryID
	}

	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		match["price"] = price
	}

	return match
}

// productSort orders by the requested key with _id as a tie-breaker so
// pages stay stable.
func productSort(sort models.ProductSort) bson.D {
	switch sort {
	case models.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortNameDesc:
		return bson.D{{Key: "name", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortNewest:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	}
}

func populateCategory() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         categoriesCollection,
			"localField":   "category",
			"foreignField": "_id",
			"as":           "categoryInfo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"category": bson.M{"$arrayElemAt": bson.A{"$categoryInfo", 0}},
		}}},
		{{Key: "$project", Value: bson.M{"categoryInfo": 0}}},
	}
}

func productListPipeline(match bson.M, q models.ProductQuery) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: productSort(q.Sort)}},
		bson.D{{Key: "$skip", Value: q.Skip()}},
		bson.D{{Key: "$limit", Value: int64(q.Limit)}},
	)
	return append(pipeline, populateCategory()...)
}

func (s *ProductStore) List(ctx context.Context, q models.ProductQuery) ([]models.ProductView, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var searchCategoryIDs []primitive.ObjectID
	if q.Search != "" {
		ids, err := s.categories.MatchingIDs(ctx, q.Search)
		if err != nil {
			return nil, 0, err
		}
		searchCategoryIDs = ids
	}

	match := productMatch(q, searchCategoryIDs)
	total, err := s.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.coll.Aggregate(ctx, productListPipeline(match, q))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.ProductView{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindView fetches one product with its category populated.
func (s *ProductStore) FindView(ctx context.Context, id primitive.ObjectID) (*models.ProductView, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, populateCategory()...)

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	var product models.ProductView
	if err := cursor.Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that still exist among ids, keyed by id.
func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	found := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		found[product.ID] = &product
	}
	return found, cursor.Err()
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.coll.InsertOne(ctx, product)
	return duplicate(err)
}

func (s *ProductStore) Update(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return duplicate(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (s *ProductStore) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.coll.CountDocuments(ctx, bson.M{"category": categoryID})
}

func (s *ProductStore) InsertMany(ctx context.Context, products []models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if len(products) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(products))
	for i := range products {
		docs = append(docs, products[i])
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return duplicate(err)
}

func (s *ProductStore) DeleteAll(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.coll.DeleteMany(ctx, bson.M{})
	return err
}
