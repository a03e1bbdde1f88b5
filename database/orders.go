package database

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderStore struct {
	client   *mongo.Client
	orders   *mongo.Collection
	products *mongo.Collection
	carts    *mongo.Collection
}

func NewOrderStore(client *mongo.Client, db *mongo.Database) *OrderStore {
	return &OrderStore{
		client:   client,
		orders:   db.Collection(ordersCollection),
		products: db.Collection(productsCollection),
		carts:    db.Collection(cartsCollection),
	}
}

// withTransaction runs fn inside a multi-document transaction. It returns
// errTransactionsUnsupported when the deployment is a standalone server.
func (s *OrderStore) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if isTransactionUnsupported(err) {
		return errTransactionsUnsupported
	}
	return err
}

// PlaceOrder decrements stock for every line item, inserts the order and
// deletes the user's cart as one unit. A line item whose product cannot
// cover its quantity fails the whole order with a *StockError and nothing
// is written. An order for a checkout session that already has one fails
// with ErrDuplicate.
func (s *OrderStore) PlaceOrder(ctx context.Context, order *models.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now

	err := s.withTransaction(ctx, func(tx context.Context) error {
		for _, item := range order.Items {
			if err := s.decrementStock(tx, item); err != nil {
				return err
			}
		}
		if err := s.insertOrder(tx, order); err != nil {
			return err
		}
		return s.deleteCart(tx, order.User)
	})
	if errors.Is(err, errTransactionsUnsupported) {
		log.Printf("Transactions unavailable, placing order %s with compensation", order.ID.Hex())
		return placeOrderCompensating(ctx, s, order)
	}
	return err
}

// orderWriter is the set of single-document writes that make up placing an
// order.
type orderWriter interface {
	decrementStock(ctx context.Context, item models.OrderItem) error
	incrementStock(ctx context.Context, item models.OrderItem) error
	insertOrder(ctx context.Context, order *models.Order) error
	deleteCart(ctx context.Context, user primitive.ObjectID) error
}

// placeOrderCompensating is the standalone-server path: each completed
// decrement is undone if a later step fails. The order insert is the
// commit point, so a failed cart delete after it is only logged.
func placeOrderCompensating(ctx context.Context, w orderWriter, order *models.Order) error {
	var done []models.OrderItem
	rollback := func() {
		undo := context.WithoutCancel(ctx)
		for _, item := range done {
			if err := w.incrementStock(undo, item); err != nil {
				log.Printf("Failed to restore stock for product %s: %v", item.ProductID.Hex(), err)
			}
		}
	}

	for _, item := range order.Items {
		if err := w.decrementStock(ctx, item); err != nil {
			rollback()
			return err
		}
		done = append(done, item)
	}

	if err := w.insertOrder(ctx, order); err != nil {
		rollback()
		return err
	}

	if err := w.deleteCart(ctx, order.User); err != nil {
		log.Printf("Order %s placed but cart cleanup failed: %v", order.ID.Hex(), err)
	}
	return nil
}

// inTransactionOrDirect runs fn through withTx, or directly when the
// deployment cannot run transactions.
func inTransactionOrDirect(ctx context.Context, withTx func(context.Context, func(context.Context) error) error, fn func(context.Context) error) error {
	err := withTx(ctx, fn)
	if errors.Is(err, errTransactionsUnsupported) {
		return fn(ctx)
	}
	return err
}

func (s *OrderStore) insertOrder(ctx context.Context, order *models.Order) error {
	_, err := s.orders.InsertOne(ctx, order)
	return duplicate(err)
}

func (s *OrderStore) deleteCart(ctx context.Context, user primitive.ObjectID) error {
	_, err := s.carts.DeleteOne(ctx, bson.M{"user": user})
	return err
}

func (s *OrderStore) decrementStock(ctx context.Context, item models.OrderItem) error {
	filter := bson.M{"_id": item.ProductID, "stock": bson.M{"$gte": item.Quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -item.Quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := s.products.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return &StockError{ProductID: item.ProductID, Name: item.Name}
	}
	return nil
}

func (s *OrderStore) incrementStock(ctx context.Context, item models.OrderItem) error {
	update := bson.M{
		"$inc": bson.M{"stock": item.Quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := s.products.UpdateOne(ctx, bson.M{"_id": item.ProductID}, update)
	return err
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *OrderStore) FindBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"payment.sessionId": sessionID}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := s.orders.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(filter.Page-1) * int64(filter.Limit)).
		SetLimit(int64(filter.Limit))
	cursor, err := s.orders.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves an order from one status to another. The write only
// applies while the order is still in status from; otherwise ErrConflict.
// With restock set, the order's quantities are returned to stock.
func (s *OrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, restock bool) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	set := bson.M{"status": to, "updatedAt": now}
	switch to {
	case models.OrderStatusPaid:
		set["paidAt"] = now
		set["payment.status"] = models.PaymentPaid
	case models.OrderStatusDelivered:
		set["deliveredAt"] = now
	case models.OrderStatusFailed:
		set["payment.status"] = models.PaymentFailed
	}

	var updated models.Order
	apply := func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := s.orders.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrConflict
		}
		if err != nil {
			return err
		}
		if restock {
			for _, item := range updated.Items {
				if err := s.incrementStock(ctx, item); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := inTransactionOrDirect(ctx, s.withTransaction, apply); err != nil {
		return nil, err
	}
	return &updated, nil
}
