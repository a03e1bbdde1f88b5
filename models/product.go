package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PlaceholderImage = "https://placehold.co/100x100/cccccc/333333?text=No+Image"

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Category    primitive.ObjectID `bson:"category" json:"category"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ImageOrPlaceholder returns the product image, or the shared placeholder when unset.
func (p *Product) ImageOrPlaceholder() string {
	if p.Image == "" {
		return PlaceholderImage
	}
	return p.Image
}

// ProductView is a product with its category populated.
type ProductView struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Category    *CategoryRef       `bson:"category,omitempty" json:"category"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Image       *string
	Category    *primitive.ObjectID
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Stock == nil && p.Image == nil && p.Category == nil
}

type ProductSort string

const (
	SortNameAsc   ProductSort = "name_asc"
	SortNameDesc  ProductSort = "name_desc"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortNewest    ProductSort = "newest"
)

// ParseProductSort maps a query value onto a sort, defaulting to name ascending.
func ParseProductSort(s string) ProductSort {
	switch ProductSort(s) {
	case SortNameDesc, SortPriceAsc, SortPriceDesc, SortNewest:
		return ProductSort(s)
	default:
		return SortNameAsc
	}
}

// ProductQuery is a normalized product listing request. CategoryID is
// resolved from the category name before the query reaches the store.
type ProductQuery struct {
	Search     string
	CategoryID *primitive.ObjectID
	MinPrice   *float64
	MaxPrice   *float64
	Sort       ProductSort
	Page       int
	Limit      int
}

func (q ProductQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

type ProductPage struct {
	Products      []ProductView `json:"products"`
	TotalProducts int64         `json:"totalProducts"`
	Page          int           `json:"page"`
	Limit         int           `json:"limit"`
	TotalPages    int64         `json:"totalPages"`
}
