package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusFailed     OrderStatus = "failed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusProcessing, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether an order in status s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type ShippingAddress struct {
	Name       string `bson:"name" json:"name" validate:"required"`
	Address    string `bson:"address" json:"address" validate:"required"`
	City       string `bson:"city" json:"city" validate:"required"`
	State      string `bson:"state" json:"state" validate:"required"`
	PostalCode string `bson:"postalCode" json:"postalCode" validate:"required"`
	Country    string `bson:"country" json:"country" validate:"required"`
	Phone      string `bson:"phone" json:"phone" validate:"required"`
}

// ShippingFromAddress converts a saved address into an order shipping address.
func ShippingFromAddress(name string, a Address) ShippingAddress {
	street := a.Line1
	if a.Line2 != "" {
		street += ", " + a.Line2
	}
	return ShippingAddress{
		Name:       name,
		Address:    street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.Pincode,
		Country:    a.Country,
		Phone:      a.Mobile,
	}
}

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image" json:"image"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

type PaymentInfo struct {
	Provider   string        `bson:"provider" json:"provider"`
	Method     PaymentMethod `bson:"method,omitempty" json:"method,omitempty"`
	IntentID   string        `bson:"intentId,omitempty" json:"intentId,omitempty"`
	SessionID  string        `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Status     PaymentStatus `bson:"status" json:"status"`
	ReceiptURL string        `bson:"receiptUrl,omitempty" json:"receiptUrl,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	Payment         PaymentInfo        `bson:"payment" json:"payment"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderItemsFromCart snapshots the cart line items into order items priced
// at the current product price. Items without a product keep their cart price.
func OrderItemsFromCart(items []CartItem, products map[primitive.ObjectID]*Product) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		price := item.Price
		if product, ok := products[item.ProductID]; ok {
			price = product.Price
		}
		out = append(out, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return out
}

// OrderTotal sums price*quantity over the order items, rounded to cents.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

type OrderFilter struct {
	Status OrderStatus
	Page   int
	Limit  int
}
