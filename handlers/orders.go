package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/middleware"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/services"
)

// maxWebhookBody caps the payload read from the payment provider.
const maxWebhookBody = 64 << 10

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type checkoutRequest struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	AddressID       *string                 `json:"addressId"`
}

type placeOrderRequest struct {
	SessionID       string                  `json:"sessionId"`
	PaymentMethod   models.PaymentMethod    `json:"paymentMethod"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	AddressID       *string                 `json:"addressId"`
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

func shippingInput(address *models.ShippingAddress, addressID *string) (services.ShippingInput, error) {
	id, err := optionalID(addressID, "address")
	if err != nil {
		return services.ShippingInput{}, err
	}
	return services.ShippingInput{Address: address, AddressID: id}, nil
}

func (h *OrderHandler) CreateCheckoutSession(c echo.Context) error {
	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	shipping, err := shippingInput(req.ShippingAddress, req.AddressID)
	if err != nil {
		return err
	}

	session, err := h.orders.CreateCheckoutSession(c.Request().Context(), middleware.CurrentUserID(c), shipping)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"url":       session.URL,
		"sessionId": session.ID,
	})
}

// Webhook must receive the body unparsed: the signature covers the raw bytes.
func (h *OrderHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return models.BadRequest("Could not read webhook body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.orders.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	shipping, err := shippingInput(req.ShippingAddress, req.AddressID)
	if err != nil {
		return err
	}

	order, created, err := h.orders.PlaceOrder(c.Request().Context(), middleware.CurrentUserID(c), services.PlaceOrderInput{
		SessionID:     req.SessionID,
		PaymentMethod: req.PaymentMethod,
		Shipping:      shipping,
	})
	if err != nil {
		return err
	}

	if !created {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "Order already placed for this payment.",
			"order":   order,
		})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Order placed successfully.",
		"order":   order,
	})
}

func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	orders, err := h.orders.ListMine(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Orders fetched successfully.",
		"orders":  orders,
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := idParam(c, "id", "order")
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.Request().Context(), middleware.CurrentUserID(c), id, middleware.IsAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"order": order})
}

func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	list, err := h.orders.ListAll(c.Request().Context(), models.OrderFilter{
		Status: models.OrderStatus(c.QueryParam("status")),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Orders fetched successfully.",
		"orders":      list.Orders,
		"totalOrders": list.TotalOrders,
		"page":        list.Page,
		"limit":       list.Limit,
		"totalPages":  list.TotalPages,
	})
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := idParam(c, "id", "order")
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Order status updated.",
		"order":   order,
	})
}
