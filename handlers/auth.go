package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email,max=30"`
	Password string `json:"password" validate:"required,min=8,max=30"`
	Phone    string `json:"phone" validate:"omitempty,min=10,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=30"`
}

func authResponse(message string, result *services.AuthResult) map[string]interface{} {
	return map[string]interface{}{
		"message":  message,
		"token":    result.Token,
		"userID":   result.User.ID.Hex(),
		"userData": result.User.Summary(),
	}
}

func (h *AuthHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to the API"})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.Request().Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse("Registration successful", result))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse("Login successful", result))
}
