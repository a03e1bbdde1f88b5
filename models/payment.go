package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	MethodCOD        PaymentMethod = "COD"
	MethodCreditCard PaymentMethod = "Credit Card"
	MethodUPI        PaymentMethod = "UPI"
	MethodPayPal     PaymentMethod = "PayPal"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// Payment tracks one hosted checkout attempt from creation to completion.
type Payment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID  `bson:"user" json:"user"`
	Order           *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	Provider        string              `bson:"provider" json:"provider"`
	Method          PaymentMethod       `bson:"method" json:"method"`
	SessionID       string              `bson:"sessionId" json:"sessionId"`
	IntentID        string              `bson:"intentId,omitempty" json:"intentId,omitempty"`
	TransactionID   string              `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Status          PaymentRecordStatus `bson:"status" json:"status"`
	Items           []OrderItem         `bson:"items" json:"items"`
	Amount          float64             `bson:"amount" json:"amount"`
	Currency        string              `bson:"currency" json:"currency"`
	ShippingAddress ShippingAddress     `bson:"shippingAddress" json:"shippingAddress"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CheckoutLine is one line item handed to the hosted payment page.
type CheckoutLine struct {
	Name           string
	Image          string
	UnitAmountCent int64
	Quantity       int64
}

type CheckoutRequest struct {
	UserID         string
	CustomerEmail  string
	Currency       string
	Lines          []CheckoutLine
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	Metadata       map[string]string
}

// CheckoutSession is the provider-neutral view of a hosted checkout session.
type CheckoutSession struct {
	ID                string
	URL               string
	PaymentStatus     string
	PaymentIntentID   string
	ClientReferenceID string
	AmountTotal       int64
	Currency          string
	Metadata          map[string]string
}

func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutExpired        = "checkout.session.expired"
	EventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
)

type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}
