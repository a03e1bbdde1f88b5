package services

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const paymentProvider = "stripe"

type OrderConfig struct {
	Currency    string
	FrontendURL string
}

type OrderService struct {
	orders   OrderStore
	payments PaymentStore
	carts    CartStore
	products ProductStore
	users    UserStore
	gateway  PaymentGateway
	cache    Cache
	cfg      OrderConfig
	now      func() time.Time
}

// NewOrderService wires checkout and order management. gateway may be nil,
// in which case only cash on delivery orders can be placed. cache is the
// catalog cache, invalidated whenever stock changes.
func NewOrderService(orders OrderStore, payments PaymentStore, carts CartStore, products ProductStore,
	users UserStore, gateway PaymentGateway, cache Cache, cfg OrderConfig) *OrderService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cache == nil {
		cache = NoopCache{}
	}
	return &OrderService{
		orders:   orders,
		payments: payments,
		carts:    carts,
		products: products,
		users:    users,
		gateway:  gateway,
		cache:    cache,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ShippingInput selects a shipping address: either given inline or by the
// id of one of the user's saved addresses. With neither, the user's
// default address is used.
type ShippingInput struct {
	Address   *models.ShippingAddress
	AddressID *primitive.ObjectID
}

type PlaceOrderInput struct {
	SessionID     string
	PaymentMethod models.PaymentMethod
	Shipping      ShippingInput
}

func errPaymentsDisabled() *models.APIError {
	return models.NewAPIError(http.StatusServiceUnavailable, "Online payments are not configured")
}

func (s *OrderService) loadUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("User not found")
	}
	return user, err
}

func resolveShipping(user *models.User, in ShippingInput) (models.ShippingAddress, error) {
	if in.Address != nil {
		return *in.Address, nil
	}
	if in.AddressID != nil {
		for _, a := range user.Addresses {
			if a.ID == *in.AddressID {
				return models.ShippingFromAddress(user.Name, a), nil
			}
		}
		return models.ShippingAddress{}, models.NotFound("Address not found")
	}
	for _, a := range user.Addresses {
		if a.IsDefault {
			return models.ShippingFromAddress(user.Name, a), nil
		}
	}
	return models.ShippingAddress{}, models.BadRequest("Shipping address is required")
}

// checkoutItems loads the user's cart, checks every line item against
// current stock and prices it at the current product price.
func (s *OrderService) checkoutItems(ctx context.Context, userID primitive.ObjectID) ([]models.OrderItem, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.BadRequest("Cart is empty")
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, models.BadRequest("Cart is empty")
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, models.BadRequest("%s is no longer available", item.Name)
		}
		if item.Quantity > product.Stock {
			return nil, models.BadRequest("Not enough stock for %s. Available: %d", product.Name, product.Stock)
		}
	}
	return models.OrderItemsFromCart(cart.Items, products), nil
}

// CreateCheckoutSession starts a hosted payment for the user's cart and
// records a pending payment holding the priced items and the shipping
// address.
func (s *OrderService) CreateCheckoutSession(ctx context.Context, userID primitive.ObjectID, shipping ShippingInput) (*models.CheckoutSession, error) {
	if s.gateway == nil {
		return nil, errPaymentsDisabled()
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	address, err := resolveShipping(user, shipping)
	if err != nil {
		return nil, err
	}
	items, err := s.checkoutItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]models.CheckoutLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.CheckoutLine{
			Name:           item.Name,
			Image:          item.Image,
			UnitAmountCent: utils.ToCents(item.Price),
			Quantity:       int64(item.Quantity),
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, models.CheckoutRequest{
		UserID:         userID.Hex(),
		CustomerEmail:  user.Email,
		Currency:       s.cfg.Currency,
		Lines:          lines,
		SuccessURL:     s.cfg.FrontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      s.cfg.FrontendURL + "/cart",
		IdempotencyKey: uuid.NewString(),
		Metadata:       map[string]string{"userId": userID.Hex()},
	})
	if err != nil {
		checkoutSessions.WithLabelValues("error").Inc()
		return nil, err
	}

	payment := &models.Payment{
		User:            userID,
		Provider:        paymentProvider,
		Method:          models.MethodCreditCard,
		SessionID:       session.ID,
		Status:          models.PaymentRecordPending,
		Items:           items,
		Amount:          models.OrderTotal(items).InexactFloat64(),
		Currency:        s.cfg.Currency,
		ShippingAddress: address,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		checkoutSessions.WithLabelValues("error").Inc()
		return nil, err
	}

	checkoutSessions.WithLabelValues("created").Inc()
	return session, nil
}

// PlaceOrder creates an order either from a paid checkout session or as
// cash on delivery. The bool reports whether a new order was created.
func (s *OrderService) PlaceOrder(ctx context.Context, userID primitive.ObjectID, in PlaceOrderInput) (*models.Order, bool, error) {
	if in.SessionID != "" {
		if s.gateway == nil {
			return nil, false, errPaymentsDisabled()
		}
		session, err := s.gateway.RetrieveSession(ctx, in.SessionID)
		if err != nil {
			return nil, false, &models.APIError{Code: http.StatusBadRequest, Message: "Invalid payment session", Err: err}
		}
		if session.ClientReferenceID != userID.Hex() {
			return nil, false, models.BadRequest("Payment session does not belong to this user")
		}
		if !session.Paid() {
			return nil, false, models.BadRequest("Payment not completed")
		}
		return s.finalize(ctx, session)
	}

	if in.PaymentMethod != models.MethodCOD {
		return nil, false, models.BadRequest("A paid checkout session or Cash on Delivery is required")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	address, err := resolveShipping(user, in.Shipping)
	if err != nil {
		return nil, false, err
	}
	items, err := s.checkoutItems(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	order := &models.Order{
		User:            userID,
		Items:           items,
		ShippingAddress: address,
		TotalPrice:      models.OrderTotal(items).InexactFloat64(),
		Payment: models.PaymentInfo{
			Provider: "cod",
			Method:   models.MethodCOD,
			Status:   models.PaymentUnpaid,
		},
		Status: models.OrderStatusPending,
	}
	if err := s.place(ctx, order); err != nil {
		return nil, false, err
	}
	ordersPlaced.WithLabelValues(string(models.MethodCOD)).Inc()
	return order, true, nil
}

func (s *OrderService) place(ctx context.Context, order *models.Order) error {
	err := s.orders.PlaceOrder(ctx, order)
	var stockErr *database.StockError
	if errors.As(err, &stockErr) {
		return models.BadRequest("Not enough stock for %s", stockErr.Name)
	}
	if err != nil {
		return err
	}
	s.stockChanged(ctx)
	return nil
}

func (s *OrderService) stockChanged(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("catalog cache invalidation failed: %v", err)
	}
}

// finalize turns a paid session into an order exactly once. A session that
// already produced an order returns that order.
func (s *OrderService) finalize(ctx context.Context, session *models.CheckoutSession) (*models.Order, bool, error) {
	existing, err := s.orders.FindBySession(ctx, session.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	payment, err := s.payments.FindBySession(ctx, session.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, models.BadRequest("Unknown payment session")
	}
	if err != nil {
		return nil, false, err
	}

	if len(payment.Items) == 0 {
		return nil, false, models.BadRequest("Payment session has no items")
	}
	if session.AmountTotal != utils.ToCents(payment.Amount) {
		return nil, false, models.BadRequest("Paid amount does not match the checkout total")
	}

	// Built from the checkout snapshot: the cart may have changed since.
	paidAt := s.now()
	order := &models.Order{
		User:            payment.User,
		Items:           payment.Items,
		ShippingAddress: payment.ShippingAddress,
		TotalPrice:      payment.Amount,
		Payment: models.PaymentInfo{
			Provider:  paymentProvider,
			Method:    payment.Method,
			IntentID:  session.PaymentIntentID,
			SessionID: session.ID,
			Status:    models.PaymentPaid,
		},
		Status: models.OrderStatusPaid,
		PaidAt: &paidAt,
	}

	err = s.place(ctx, order)
	if errors.Is(err, database.ErrDuplicate) {
		existing, findErr := s.orders.FindBySession(ctx, session.ID)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := s.payments.MarkCompleted(ctx, session.ID, session.PaymentIntentID, order.ID); err != nil {
		log.Printf("Order %s placed but payment %s was not updated: %v", order.ID.Hex(), session.ID, err)
	}
	ordersPlaced.WithLabelValues(paymentProvider).Inc()
	return order, true, nil
}

// HandleWebhook verifies and applies a payment provider event. Failures
// after verification are logged and counted, not returned, so the
// provider does not keep redelivering an event that cannot succeed.
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return errPaymentsDisabled()
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return &models.APIError{Code: http.StatusBadRequest, Message: "Webhook Error", Details: err.Error(), Err: err}
	}

	result := "ignored"
	switch event.Type {
	case models.EventCheckoutCompleted, models.EventCheckoutAsyncSucceeded:
		if !event.Session.Paid() {
			result = "pending"
			break
		}
		if _, _, err := s.finalize(ctx, event.Session); err != nil {
			log.Printf("Webhook %s: finalizing session %s failed: %v", event.ID, event.Session.ID, err)
			result = "error"
			break
		}
		result = "ok"
	case models.EventCheckoutExpired, models.EventCheckoutAsyncFailed:
		err := s.payments.MarkFailed(ctx, event.Session.ID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			log.Printf("Webhook %s: marking session %s failed: %v", event.ID, event.Session.ID, err)
			result = "error"
			break
		}
		result = "ok"
	}

	paymentWebhooks.WithLabelValues(event.Type, result).Inc()
	return nil
}

func (s *OrderService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Get returns an order owned by userID. Admins may read any order.
func (s *OrderService) Get(ctx context.Context, userID, orderID primitive.ObjectID, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if order.User != userID && !isAdmin {
		return nil, models.NotFound("Order not found")
	}
	return order, nil
}

type OrderList struct {
	Orders      []models.Order
	TotalOrders int64
	Page        int
	Limit       int
	TotalPages  int64
}

func (s *OrderService) ListAll(ctx context.Context, filter models.OrderFilter) (*OrderList, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.BadRequest("Invalid order status: %s", filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > maxPage {
		filter.Page = maxPage
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderList{
		Orders:      orders,
		TotalOrders: total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages(total, filter.Limit),
	}, nil
}

// UpdateStatus applies an admin status change. Cancelled and failed orders
// give their quantities back to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, models.BadRequest("Invalid order status: %s", to)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(to) {
		return nil, models.BadRequest("Cannot change order status from %s to %s", order.Status, to)
	}

	restock := to == models.OrderStatusCancelled || to == models.OrderStatusFailed
	updated, err := s.orders.UpdateStatus(ctx, orderID, order.Status, to, restock)
	if errors.Is(err, database.ErrConflict) {
		return nil, models.Conflict("Order status was changed by another request")
	}
	if err != nil {
		return nil, err
	}
	if restock {
		s.stockChanged(ctx)
	}
	return updated, nil
}
