package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const categoriesCacheKey = "categories"

type CategoryService struct {
	categories CategoryStore
	products   ProductStore
	cache      Cache
}

func NewCategoryService(categories CategoryStore, products ProductStore, cache Cache) *CategoryService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &CategoryService{categories: categories, products: products, cache: cache}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	key, hit, err := s.cache.Get(ctx, categoriesCacheKey, &cached)
	if err != nil {
		log.Printf("category cache read failed: %v", err)
	} else if hit {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := s.cache.Set(ctx, key, categories); err != nil {
			log.Printf("category cache write failed: %v", err)
		}
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*models.Category, error) {
	category := &models.Category{Name: strings.TrimSpace(name), Description: description}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, models.BadRequest("Category already exists")
		}
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, name, description *string) (*models.Category, error) {
	if name == nil && description == nil {
		return nil, models.BadRequest("No fields to update")
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		name = &trimmed
	}
	category, err := s.categories.Update(ctx, id, name, description)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, models.NotFound("Category not found")
	case errors.Is(err, database.ErrDuplicate):
		return nil, models.BadRequest("Category already exists")
	case err != nil:
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}

// Delete refuses to remove a category that products still reference.
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.BadRequest("Cannot delete category with associated products")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.NotFound("Category not found")
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("catalog cache invalidation failed: %v", err)
	}
}
