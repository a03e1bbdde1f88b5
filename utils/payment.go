package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// PaymentProcessor talks to Stripe hosted checkout.
type PaymentProcessor struct {
	api           *client.API
	webhookSecret string
}

func NewPaymentProcessor(secretKey, webhookSecret string) (*PaymentProcessor, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is not set")
	}
	return &PaymentProcessor{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}, nil
}

func (p *PaymentProcessor) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.UserID),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, line := range req.Lines {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(line.Name),
		}
		if line.Image != "" {
			productData.Images = stripe.StringSlice([]string{line.Image})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(line.UnitAmountCent),
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return toCheckoutSession(s), nil
}

func (p *PaymentProcessor) RetrieveSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}
	return toCheckoutSession(s), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout
// session events. Other event types come back with a nil Session.
func (p *PaymentProcessor) ParseWebhook(payload []byte, signature string) (*models.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &models.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case models.EventCheckoutCompleted, models.EventCheckoutExpired,
		models.EventCheckoutAsyncFailed, models.EventCheckoutAsyncSucceeded:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Session = toCheckoutSession(&s)
	}
	return out, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	out := &models.CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		PaymentStatus:     string(s.PaymentStatus),
		ClientReferenceID: s.ClientReferenceID,
		AmountTotal:       s.AmountTotal,
		Currency:          string(s.Currency),
		Metadata:          s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
