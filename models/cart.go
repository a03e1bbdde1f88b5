package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a snapshot of a product taken when it was added to the cart.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image" json:"image"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Items     []CartItem         `bson:"items" json:"items"`
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func NewCart(userID primitive.ObjectID) *Cart {
	return &Cart{User: userID, Items: []CartItem{}}
}

// IndexOf returns the position of the line item for productID, or -1.
func (c *Cart) IndexOf(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Total sums price*quantity over the line items, rounded to cents.
func (c *Cart) Total() decimal.Decimal {
	return LineTotal(c.Items)
}

func LineTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

// CartView is the response form of a cart.
type CartView struct {
	ID          primitive.ObjectID `json:"_id,omitempty"`
	User        primitive.ObjectID `json:"user"`
	Items       []CartItem         `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
}

func (c *Cart) View() CartView {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return CartView{
		ID:          c.ID,
		User:        c.User,
		Items:       items,
		TotalAmount: c.Total().InexactFloat64(),
	}
}
