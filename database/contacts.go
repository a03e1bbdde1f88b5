package database

import (
	"context"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ContactStore struct {
	coll *mongo.Collection
}

func NewContactStore(db *mongo.Database) *ContactStore {
	return &ContactStore{coll: db.Collection(contactsCollection)}
}

func (s *ContactStore) Create(ctx context.Context, contact *models.Contact) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	contact.ID = primitive.NewObjectID()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := s.coll.InsertOne(ctx, contact)
	return err
}
