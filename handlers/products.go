package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductHandler struct {
	products   *services.ProductService
	categories *services.CategoryService
}

func NewProductHandler(products *services.ProductService, categories *services.CategoryService) *ProductHandler {
	return &ProductHandler{products: products, categories: categories}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Category    string  `json:"category" validate:"required,mongodb"`
}

type updateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Image       *string  `json:"image" validate:"omitempty,url"`
	Category    *string  `json:"category" validate:"omitempty,mongodb"`
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=500"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// GetProducts lists products. Query: search, category (name or "all"),
// price[gte]/price[lte] or minPrice/maxPrice, sort, page, limit.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	minPrice, err := queryFloat(c, "price[gte]", "minPrice")
	if err != nil {
		return err
	}
	maxPrice, err := queryFloat(c, "price[lte]", "maxPrice")
	if err != nil {
		return err
	}

	page, err := h.products.List(c.Request().Context(), services.ProductListParams{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":       "Products fetched successfully",
		"products":      page.Products,
		"totalProducts": page.TotalProducts,
		"page":          page.Page,
		"limit":         page.Limit,
		"totalPages":    page.TotalPages,
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := idParam(c, "id", "product")
	if err != nil {
		return err
	}

	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	categoryID, err := primitive.ObjectIDFromHex(req.Category)
	if err != nil {
		return models.BadRequest("Invalid category ID format.")
	}

	product, err := h.products.Create(c.Request().Context(), &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
		Category:    categoryID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Product created successfully",
		"product": product,
	})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := idParam(c, "id", "product")
	if err != nil {
		return err
	}
	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	categoryID, err := optionalID(req.Category, "category")
	if err != nil {
		return err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}

	product, err := h.products.Update(c.Request().Context(), id, models.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
		Category:    categoryID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Product updated successfully",
		"product": product,
	})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := idParam(c, "id", "product")
	if err != nil {
		return err
	}

	product, err := h.products.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Product deleted successfully",
		"product": product,
	})
}

func (h *ProductHandler) GetCategories(c echo.Context) error {
	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *ProductHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categories.Create(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":  "Category created successfully",
		"category": category,
	})
}

func (h *ProductHandler) UpdateCategory(c echo.Context) error {
	id, err := idParam(c, "id", "category")
	if err != nil {
		return err
	}
	var req updateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categories.Update(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Category updated successfully",
		"category": category,
	})
}

func (h *ProductHandler) DeleteCategory(c echo.Context) error {
	id, err := idParam(c, "id", "category")
	if err != nil {
		return err
	}

	if err := h.categories.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
