package database

import (
	"context"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PaymentStore struct {
	coll *mongo.Collection
}

func NewPaymentStore(db *mongo.Database) *PaymentStore {
	return &PaymentStore{coll: db.Collection(paymentsCollection)}
}

func (s *PaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	_, err := s.coll.InsertOne(ctx, payment)
	return duplicate(err)
}

func (s *PaymentStore) FindBySession(ctx context.Context, sessionID string) (*models.Payment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var payment models.Payment
	if err := s.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&payment); err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// MarkCompleted links the payment to the order created for it.
func (s *PaymentStore) MarkCompleted(ctx context.Context, sessionID, intentID string, orderID primitive.ObjectID) error {
	return s.setStatus(ctx, sessionID, bson.M{
		"status":        models.PaymentRecordCompleted,
		"intentId":      intentID,
		"transactionId": intentID,
		"order":         orderID,
	})
}

func (s *PaymentStore) MarkFailed(ctx context.Context, sessionID string) error {
	return s.setStatus(ctx, sessionID, bson.M{"status": models.PaymentRecordFailed})
}

func (s *PaymentStore) setStatus(ctx context.Context, sessionID string, set bson.M) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set["updatedAt"] = time.Now()
	result, err := s.coll.UpdateOne(ctx, bson.M{"sessionId": sessionID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
