package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/services"
)

type ContactHandler struct {
	contact *services.ContactService
}

func NewContactHandler(contact *services.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,min=3,max=50"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=100"`
	Message string `json:"message" validate:"required,min=5,max=1000"`
}

func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.contact.Submit(c.Request().Context(), req.Name, req.Email, req.Subject, req.Message); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "message send successfully"})
}
