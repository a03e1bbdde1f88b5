package services

import (
	"context"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The store interfaces are satisfied by the Mongo stores in package database.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	AddAddress(ctx context.Context, userID primitive.ObjectID, address *models.Address) error
	ReplaceAddress(ctx context.Context, userID primitive.ObjectID, address *models.Address) error
	RemoveAddress(ctx context.Context, userID, addressID primitive.ObjectID) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, name, description *string) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProductStore interface {
	List(ctx context.Context, q models.ProductQuery) ([]models.ProductView, int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindView(ctx context.Context, id primitive.ObjectID) (*models.ProductView, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type CartStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

type OrderStore interface {
	PlaceOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, restock bool) (*models.Order, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindBySession(ctx context.Context, sessionID string) (*models.Payment, error)
	MarkCompleted(ctx context.Context, sessionID, intentID string, orderID primitive.ObjectID) error
	MarkFailed(ctx context.Context, sessionID string) error
}

type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
}

// PaymentGateway is the hosted checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*models.WebhookEvent, error)
}

// Cache holds catalog read results. Get returns the entry key to fill on a
// miss; an empty key means the entry must not be filled. Invalidate drops
// everything, including fills still in flight.
type Cache interface {
	Get(ctx context.Context, name string, dest interface{}) (key string, hit bool, err error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string, interface{}) (string, bool, error) { return "", false, nil }
func (NoopCache) Set(context.Context, string, interface{}) error                 { return nil }
func (NoopCache) Invalidate(context.Context) error                               { return nil }
