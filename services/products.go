package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100

	// Deeper pages are clamped so the skip offset stays bounded.
	maxPage = 10000
)

type ProductService struct {
	products   ProductStore
	categories CategoryStore
	cache      Cache
}

func NewProductService(products ProductStore, categories CategoryStore, cache Cache) *ProductService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &ProductService{products: products, categories: categories, cache: cache}
}

// ProductListParams is the raw listing request. Category is a category
// name; "all" or empty means no category filter.
type ProductListParams struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Page     int
	Limit    int
}

func (p ProductListParams) normalize() ProductListParams {
	p.Search = strings.TrimSpace(p.Search)
	p.Category = strings.TrimSpace(p.Category)
	if strings.EqualFold(p.Category, "all") {
		p.Category = ""
	}
	p.Sort = string(models.ParseProductSort(p.Sort))
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (p ProductListParams) cacheKey() string {
	price := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%g", *v)
	}
	return fmt.Sprintf("products:q=%s:c=%s:min=%s:max=%s:s=%s:p=%d:l=%d",
		strings.ToLower(p.Search), strings.ToLower(p.Category),
		price(p.MinPrice), price(p.MaxPrice), p.Sort, p.Page, p.Limit)
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

func (s *ProductService) List(ctx context.Context, params ProductListParams) (*models.ProductPage, error) {
	p := params.normalize()

	var cached models.ProductPage
	key, hit, err := s.cache.Get(ctx, p.cacheKey(), &cached)
	if err != nil {
		log.Printf("product cache read failed: %v", err)
	} else if hit {
		return &cached, nil
	}

	q := models.ProductQuery{
		Search:   p.Search,
		MinPrice: p.MinPrice,
		MaxPrice: p.MaxPrice,
		Sort:     models.ProductSort(p.Sort),
		Page:     p.Page,
		Limit:    p.Limit,
	}

	page := &models.ProductPage{Products: []models.ProductView{}, Page: p.Page, Limit: p.Limit}

	if p.Category != "" {
		category, err := s.categories.FindByName(ctx, p.Category)
		if errors.Is(err, database.ErrNotFound) {
			return page, nil
		}
		if err != nil {
			return nil, err
		}
		q.CategoryID = &category.ID
	}

	products, total, err := s.products.List(ctx, q)
	if err != nil {
		return nil, err
	}
	page.Products = products
	page.TotalProducts = total
	page.TotalPages = totalPages(total, p.Limit)

	if key != "" {
		if err := s.cache.Set(ctx, key, page); err != nil {
			log.Printf("product cache write failed: %v", err)
		}
	}
	return page, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.ProductView, error) {
	product, err := s.products.FindView(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("Product not found")
	}
	return product, err
}

func (s *ProductService) checkCategory(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.BadRequest("Invalid category ID")
	}
	return err
}

func (s *ProductService) Create(ctx context.Context, product *models.Product) (*models.ProductView, error) {
	if err := s.checkCategory(ctx, product.Category); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, models.BadRequest("Product with this name already exists")
		}
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, product.ID)
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.ProductView, error) {
	if patch.Empty() {
		return nil, models.BadRequest("No fields to update")
	}
	if patch.Category != nil {
		if err := s.checkCategory(ctx, *patch.Category); err != nil {
			return nil, err
		}
	}
	if err := s.products.Update(ctx, id, patch); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, models.NotFound("Product not found")
		case errors.Is(err, database.ErrDuplicate):
			return nil, models.BadRequest("Product with this name already exists")
		}
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("catalog cache invalidation failed: %v", err)
	}
}
