package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// Columns the catalog listing may sort on. Anything else falls back to the
// default newest-first ordering.
var sortColumns = map[string]string{
	"price":     "price",
	"rating":    "rating",
	"name":      "name",
	"createdAt": "created_at",
	"created":   "created_at",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// List retrieves one page of active products matching every supplied filter,
// plus the total match count. The caller is expected to have normalized
// Page and Limit to values >= 1.
func (r *GORMProductRepository) List(filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("is_active = ?", true)

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(category) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Gender != "" {
		query = query.Where("gender = ?", filter.Gender)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := query.Order(sortClause(filter)).
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Preload("Colors", byPosition).
		Preload("Colors.Sizes", byPosition).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// sortClause maps the requested sort onto a whitelisted column. When a sort
// field is combined with a text search, recency breaks ties (the SQL
// re-expression has no relevance score to rank by).
func sortClause(filter ProductFilter) string {
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		return "created_at DESC"
	}
	direction := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		direction = "ASC"
	}
	clause := column + " " + direction
	if filter.Search != "" && column != "created_at" {
		clause += ", created_at DESC"
	}
	return clause
}

// Featured retrieves the top active featured products by rating.
func (r *GORMProductRepository) Featured(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ? AND is_featured = ?", true, true).
		Order("rating DESC").
		Limit(limit).
		Preload("Colors", byPosition).
		Preload("Colors.Sizes", byPosition).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product with its colors, sizes and reviews.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Colors", byPosition).
		Preload("Colors.Sizes", byPosition).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product with its initial color/size stock layout.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Colors {
		product.Colors[i].Position = i
		for j := range product.Colors[i].Sizes {
			product.Colors[i].Sizes[j].Position = j
		}
	}
	product.TotalStock = product.ComputeTotalStock()
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateFields applies a field-level merge: only the supplied columns change.
// Returns the post-merge product.
func (r *GORMProductRepository) UpdateFields(id string, fields map[string]interface{}) (*models.Product, error) {
	if len(fields) > 0 {
		res := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update product %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
	}
	return r.GetByID(id)
}

// Delete hard-removes a product and everything it owns. There is no
// soft-delete: a deleted product is gone.
func (r *GORMProductRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		colorIDs := tx.Model(&models.Color{}).Select("id").Where("product_id = ?", id)
		if err := tx.Where("color_id IN (?)", colorIDs).Delete(&models.Size{}).Error; err != nil {
			return fmt.Errorf("failed to delete sizes for product %s: %w", id, err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Color{}).Error; err != nil {
			return fmt.Errorf("failed to delete colors for product %s: %w", id, err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews for product %s: %w", id, err)
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil
	})
}

// AdjustStock adds a signed delta to the stock of one color/size pair. The
// increment runs store-side (stock = stock + delta), so concurrent
// adjustments never lose updates. No floor is enforced: a negative delta may
// drive the count below zero.
func (r *GORMProductRepository) AdjustStock(id, colorName, sizeLabel string, delta int) (*models.Product, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up product %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}

		var color models.Color
		if err := tx.First(&color, "product_id = ? AND name = ?", id, colorName).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("color %q on product %s: %w", colorName, id, ErrColorNotFound)
			}
			return fmt.Errorf("failed to look up color %q: %w", colorName, err)
		}

		res := tx.Model(&models.Size{}).
			Where("color_id = ? AND label = ?", color.ID, sizeLabel).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("failed to adjust stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("size %q on color %q: %w", sizeLabel, colorName, ErrSizeNotFound)
		}

		// Derived total moves by the same delta in the same transaction.
		err := tx.Model(&models.Product{}).Where("id = ?", id).
			Update("total_stock", gorm.Expr("total_stock + ?", delta)).Error
		if err != nil {
			return fmt.Errorf("failed to update total stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// AddReview appends a review and recomputes the product's rating aggregate
// store-side. The unique index on (product_id, user_id) backs the
// one-review-per-user invariant even under concurrent submissions.
func (r *GORMProductRepository) AddReview(id string, review *models.Review) (*models.Product, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up product %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}

		var existing int64
		err := tx.Model(&models.Review{}).
			Where("product_id = ? AND user_id = ?", id, review.UserID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("user %s on product %s: %w", review.UserID, id, ErrDuplicateReview)
		}

		review.ProductID = id
		review.CreatedAt = time.Now()
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to append review: %w", err)
		}

		err = tx.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
			"rating":      tx.Model(&models.Review{}).Select("AVG(rating)").Where("product_id = ?", id),
			"num_reviews": gorm.Expr("num_reviews + 1"),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to recompute product rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}
