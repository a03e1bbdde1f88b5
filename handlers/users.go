package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/middleware"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/services"
)

// UserHandler serves the signed-in user's profile and saved addresses.
type UserHandler struct {
	auth      *services.AuthService
	addresses *services.AddressService
}

func NewUserHandler(auth *services.AuthService, addresses *services.AddressService) *UserHandler {
	return &UserHandler{auth: auth, addresses: addresses}
}

type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=3"`
	Phone *string `json:"phone" validate:"omitempty,min=10,max=20"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=30"`
}

type addressRequest struct {
	Line1       string             `json:"line1" validate:"required"`
	Line2       string             `json:"line2"`
	City        string             `json:"city" validate:"required"`
	State       string             `json:"state" validate:"required"`
	Country     string             `json:"country" validate:"required"`
	Pincode     string             `json:"pincode" validate:"required"`
	Mobile      string             `json:"mobile" validate:"required,min=10,max=20"`
	AddressType models.AddressType `json:"addressType" validate:"omitempty,oneof=Home Work Other"`
	IsDefault   bool               `json:"isDefault"`
}

type addressPatchRequest struct {
	Line1       *string             `json:"line1" validate:"omitempty,min=1"`
	Line2       *string             `json:"line2"`
	City        *string             `json:"city" validate:"omitempty,min=1"`
	State       *string             `json:"state" validate:"omitempty,min=1"`
	Country     *string             `json:"country" validate:"omitempty,min=1"`
	Pincode     *string             `json:"pincode" validate:"omitempty,min=1"`
	Mobile      *string             `json:"mobile" validate:"omitempty,min=10,max=20"`
	AddressType *models.AddressType `json:"addressType" validate:"omitempty,oneof=Home Work Other"`
	IsDefault   *bool               `json:"isDefault"`
}

func (h *UserHandler) GetUser(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"userData": middleware.CurrentUser(c)})
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), middleware.CurrentUserID(c),
		models.ProfileUpdate{Name: req.Name, Phone: req.Phone})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Profile updated successfully",
		"userData": user,
	})
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (h *UserHandler) GetAddresses(c echo.Context) error {
	addresses, err := h.addresses.List(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"addresses": addresses})
}

func (h *UserHandler) AddAddress(c echo.Context) error {
	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	addresses, err := h.addresses.Add(c.Request().Context(), middleware.CurrentUserID(c), &models.Address{
		Line1:       req.Line1,
		Line2:       req.Line2,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Pincode:     req.Pincode,
		Mobile:      req.Mobile,
		AddressType: req.AddressType,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":   "Address added",
		"addresses": addresses,
	})
}

func (h *UserHandler) UpdateAddress(c echo.Context) error {
	addressID, err := idParam(c, "id", "address")
	if err != nil {
		return err
	}
	var req addressPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	addresses, err := h.addresses.Update(c.Request().Context(), middleware.CurrentUserID(c), addressID, models.AddressPatch{
		Line1:       req.Line1,
		Line2:       req.Line2,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Pincode:     req.Pincode,
		Mobile:      req.Mobile,
		AddressType: req.AddressType,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Address updated",
		"addresses": addresses,
	})
}

func (h *UserHandler) DeleteAddress(c echo.Context) error {
	addressID, err := idParam(c, "id", "address")
	if err != nil {
		return err
	}

	addresses, err := h.addresses.Delete(c.Request().Context(), middleware.CurrentUserID(c), addressID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Address deleted",
		"addresses": addresses,
	})
}
