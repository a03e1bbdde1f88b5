package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

type CatalogCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// CatalogProduct names its category instead of referencing it by id.
type CatalogProduct struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Stock       int     `yaml:"stock"`
	Image       string  `yaml:"image"`
	Category    string  `yaml:"category"`
}

type Catalog struct {
	Categories []CatalogCategory `yaml:"categories"`
	Products   []CatalogProduct  `yaml:"products"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(catalog.Categories) == 0 {
		return nil, fmt.Errorf("parse catalog: no categories")
	}
	return &catalog, nil
}

// BuildCategories assigns ids to the catalog categories and returns them
// with a name to id lookup.
func (c *Catalog) BuildCategories(now time.Time) ([]models.Category, map[string]primitive.ObjectID) {
	categories := make([]models.Category, 0, len(c.Categories))
	ids := make(map[string]primitive.ObjectID, len(c.Categories))
	for _, cat := range c.Categories {
		id := primitive.NewObjectID()
		ids[cat.Name] = id
		categories = append(categories, models.Category{
			ID:          id,
			Name:        cat.Name,
			Description: cat.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return categories, ids
}

// BuildProducts resolves each product's category name. Products naming an
// unknown category are returned in skipped and left out.
func (c *Catalog) BuildProducts(categoryIDs map[string]primitive.ObjectID, now time.Time) (products []models.Product, skipped []string) {
	for _, p := range c.Products {
		id, ok := categoryIDs[p.Category]
		if !ok {
			skipped = append(skipped, p.Name)
			continue
		}
		products = append(products, models.Product{
			ID:          primitive.NewObjectID(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Image:       p.Image,
			Category:    id,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return products, skipped
}

// SeedCatalog replaces all categories and products with the catalog contents.
func SeedCatalog(ctx context.Context, categories *CategoryStore, products *ProductStore, catalog *Catalog) error {
	log.Println("Clearing existing products and categories...")
	if err := products.DeleteAll(ctx); err != nil {
		return err
	}
	if err := categories.DeleteAll(ctx); err != nil {
		return err
	}

	now := time.Now()
	cats, ids := catalog.BuildCategories(now)
	if err := categories.InsertMany(ctx, cats); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}
	log.Printf("Categories seeded: %d categories.", len(cats))

	prods, skipped := catalog.BuildProducts(ids, now)
	for _, name := range skipped {
		log.Printf("Warning: category not found for product %q, skipping", name)
	}
	if err := products.InsertMany(ctx, prods); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	log.Printf("Products seeded: %d products.", len(prods))
	return nil
}
