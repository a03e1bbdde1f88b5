package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/middleware"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartHandler struct {
	cart *services.CartService
}

func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	cart, err := h.cart.Get(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}

	message := "Cart fetched successfully."
	if cart.ID.IsZero() {
		message = "Cart is empty."
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    message,
		"cart":       cart.View(),
		"totalItems": len(cart.Items),
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	var req addToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return models.BadRequest("Invalid Product ID format.")
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	update, err := h.cart.AddItem(c.Request().Context(), middleware.CurrentUserID(c), productID, quantity)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if update.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, map[string]interface{}{
		"message": update.Message,
		"cart":    update.Cart.View(),
	})
}

func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	productID, err := idParam(c, "productId", "Product")
	if err != nil {
		return err
	}
	var req updateCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	update, err := h.cart.UpdateQuantity(c.Request().Context(), middleware.CurrentUserID(c), productID, *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": update.Message,
		"cart":    update.Cart.View(),
	})
}

func (h *CartHandler) RemoveCartItem(c echo.Context) error {
	productID, err := idParam(c, "productId", "Product")
	if err != nil {
		return err
	}

	update, err := h.cart.RemoveItem(c.Request().Context(), middleware.CurrentUserID(c), productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": update.Message,
		"cart":    update.Cart.View(),
	})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	if err := h.cart.Clear(c.Request().Context(), middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Cart cleared successfully."})
}
