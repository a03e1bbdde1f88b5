package services

import (
	"context"
	"errors"

	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressService manages the addresses embedded in a user document. At
// most one address is the default, and a user with addresses always has one.
type AddressService struct {
	users UserStore
}

func NewAddressService(users UserStore) *AddressService {
	return &AddressService{users: users}
}

func (s *AddressService) load(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("User not found")
	}
	return user, err
}

func (s *AddressService) addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return []models.Address{}, nil
	}
	return user.Addresses, nil
}

func (s *AddressService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	return s.addresses(ctx, userID)
}

func (s *AddressService) Add(ctx context.Context, userID primitive.ObjectID, address *models.Address) ([]models.Address, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Addresses) == 0 {
		address.IsDefault = true
	}
	if address.AddressType == "" {
		address.AddressType = models.AddressHome
	}
	address.ID = primitive.NilObjectID

	if err := s.users.AddAddress(ctx, userID, address); err != nil {
		return nil, err
	}
	return s.addresses(ctx, userID)
}

func (s *AddressService) Update(ctx context.Context, userID, addressID primitive.ObjectID, patch models.AddressPatch) ([]models.Address, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var current *models.Address
	for i := range user.Addresses {
		if user.Addresses[i].ID == addressID {
			current = &user.Addresses[i]
			break
		}
	}
	if current == nil {
		return nil, models.NotFound("Address not found")
	}

	updated := *current
	patch.Apply(&updated)
	// The only address stays the default.
	if len(user.Addresses) == 1 {
		updated.IsDefault = true
	}

	if err := s.users.ReplaceAddress(ctx, userID, &updated); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, models.NotFound("Address not found")
		}
		return nil, err
	}
	return s.addresses(ctx, userID)
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID primitive.ObjectID) ([]models.Address, error) {
	if err := s.users.RemoveAddress(ctx, userID, addressID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, models.NotFound("Address not found")
		}
		return nil, err
	}

	remaining, err := s.addresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return remaining, nil
	}
	for _, a := range remaining {
		if a.IsDefault {
			return remaining, nil
		}
	}

	promoted := remaining[0]
	promoted.IsDefault = true
	if err := s.users.ReplaceAddress(ctx, userID, &promoted); err != nil {
		return nil, err
	}
	return s.addresses(ctx, userID)
}
