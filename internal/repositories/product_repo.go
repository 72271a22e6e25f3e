package repositories

import (
	"errors"

	"storefront/internal/models"
)

// Sentinel errors for the repository layer. Handlers map these onto HTTP
// statuses with errors.Is; repositories wrap them with context via %w.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrColorNotFound   = errors.New("color not found")
	ErrSizeNotFound    = errors.New("size not found")
	ErrDuplicateReview = errors.New("user has already reviewed this product")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ProductFilter describes a catalog listing query. Zero-valued string fields
// mean "not supplied"; nil price bounds are absent bounds. Filters combine
// with logical AND; only active products are ever eligible.
type ProductFilter struct {
	Search       string
	Brand        string
	Category     string
	Gender       string
	MinPrice     *float64
	MaxPrice     *float64
	FeaturedOnly bool
	SortBy       string
	Order        string
	Page         int
	Limit        int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, int64, error)
	Featured(limit int) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	UpdateFields(id string, fields map[string]interface{}) (*models.Product, error)
	Delete(id string) error
	AdjustStock(id, colorName, sizeLabel string, delta int) (*models.Product, error)
	AddReview(id string, review *models.Review) (*models.Product, error)
}
