package services

import (
	"context"
	"errors"

	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxCartRetries bounds how often a mutation is re-applied after losing a
// concurrent save.
const maxCartRetries = 3

type CartService struct {
	carts    CartStore
	products ProductStore
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

// CartUpdate is the outcome of a cart mutation.
type CartUpdate struct {
	Cart    *models.Cart
	Message string
	Created bool
}

// Get returns the user's cart with line items for deleted products left
// out. A user without a cart gets an empty, unsaved cart.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return models.NewCart(userID), nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	existing, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if _, ok := existing[item.ProductID]; ok {
			items = append(items, item)
		}
	}
	cart.Items = items
	return cart, nil
}

// mutate loads the cart, applies fn and saves it. A save that loses to a
// concurrent writer re-reads the cart and applies fn again.
func (s *CartService) mutate(ctx context.Context, userID primitive.ObjectID, create bool, fn func(cart *models.Cart) error) (*models.Cart, error) {
	for attempt := 0; attempt <= maxCartRetries; attempt++ {
		cart, err := s.carts.Get(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			if !create {
				return nil, models.NotFound("Cart not found for this user.")
			}
			cart = models.NewCart(userID)
		} else if err != nil {
			return nil, err
		}

		if err := fn(cart); err != nil {
			return nil, err
		}

		err = s.carts.Save(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return nil, err
		}
		cartConflicts.Inc()
	}
	return nil, models.Conflict("Cart was modified by another request, please try again.")
}

func (s *CartService) findProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("Product not found.")
	}
	return product, err
}

func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*CartUpdate, error) {
	if quantity < 1 {
		return nil, models.BadRequest("Product ID and a valid quantity (min 1) are required.")
	}
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, models.BadRequest("Not enough stock for %s. Available: %d", product.Name, product.Stock)
	}

	var created bool
	cart, err := s.mutate(ctx, userID, true, func(cart *models.Cart) error {
		if i := cart.IndexOf(productID); i >= 0 {
			total := cart.Items[i].Quantity + quantity
			if total > product.Stock {
				return models.BadRequest("Cannot add more. Total quantity for %s would exceed stock. Available: %d", product.Name, product.Stock)
			}
			cart.Items[i].Quantity = total
			created = false
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.ImageOrPlaceholder(),
			Price:     product.Price,
			Quantity:  quantity,
		})
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		return &CartUpdate{Cart: cart, Created: true, Message: `"` + product.Name + `" added to cart successfully.`}, nil
	}
	return &CartUpdate{Cart: cart, Message: `Quantity for "` + product.Name + `" updated in cart.`}, nil
}

// UpdateQuantity sets a line item's quantity; zero removes the line item.
// If the product no longer exists the line item is removed and NotFound
// is returned.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*CartUpdate, error) {
	if quantity < 0 {
		return nil, models.BadRequest("Product ID and a valid quantity (0 or more) are required.")
	}

	var (
		removed bool
		gone    bool
		product *models.Product
	)
	cart, err := s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		removed, gone = false, false
		i := cart.IndexOf(productID)
		if i < 0 {
			return models.NotFound("Product not found in cart.")
		}
		if quantity == 0 {
			cart.RemoveAt(i)
			removed = true
			return nil
		}

		if product == nil {
			p, err := s.products.FindByID(ctx, productID)
			if errors.Is(err, database.ErrNotFound) {
				cart.RemoveAt(i)
				gone = true
				return nil
			}
			if err != nil {
				return err
			}
			product = p
		}
		if quantity > product.Stock {
			return models.BadRequest("Cannot update quantity to %d. Only %d available for %s.", quantity, product.Stock, product.Name)
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case gone:
		return nil, models.NotFound("Product associated with cart item not found. Item removed.")
	case removed:
		return &CartUpdate{Cart: cart, Message: "Product removed from cart."}, nil
	}
	return &CartUpdate{Cart: cart, Message: `Quantity for "` + product.Name + `" updated.`}, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*CartUpdate, error) {
	cart, err := s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		i := cart.IndexOf(productID)
		if i < 0 {
			return models.NotFound("Product not found in cart.")
		}
		cart.RemoveAt(i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &CartUpdate{Cart: cart, Message: "Product removed from cart successfully."}, nil
}

func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.carts.Get(ctx, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.NotFound("Cart not found for this user.")
		}
		return err
	}
	return s.carts.Delete(ctx, userID)
}
