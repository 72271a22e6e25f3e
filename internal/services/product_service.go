package services

import (
	"encoding/json"
	"log"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Catalog paging defaults.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	FeaturedLimit   = 8
)

// EventPublisher publishes catalog events to the message broker. A nil
// publisher disables eventing; every operation still succeeds without it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductPage is one page of catalog query results plus pagination metadata.
type ProductPage struct {
	Products []models.Product
	Total    int64
	Page     int
	Pages    int
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts runs a catalog query with normalized paging. Out-of-range page
// and limit values fall back to defaults rather than failing the request.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}

	products, total, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Pages:    pages,
	}, nil
}

// FeaturedProducts retrieves the top featured products by rating.
func (s *ProductService) FeaturedProducts() ([]models.Product, error) {
	return s.repo.Featured(FeaturedLimit)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product and announces it on the event bus.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.publish("product.created", map[string]interface{}{
		"productId": product.ID,
		"name":      product.Name,
		"brand":     product.Brand,
		"price":     product.Price,
	})
	return nil
}

// UpdateProduct applies a partial update; only the supplied fields change.
func (s *ProductService) UpdateProduct(id string, fields map[string]interface{}) (*models.Product, error) {
	return s.repo.UpdateFields(id, fields)
}

// DeleteProduct hard-removes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// AdjustStock applies a signed stock delta to one color/size pair.
func (s *ProductService) AdjustStock(id, colorName, sizeLabel string, delta int) (*models.Product, error) {
	product, err := s.repo.AdjustStock(id, colorName, sizeLabel, delta)
	if err != nil {
		return nil, err
	}
	s.publish("product.stock_adjusted", map[string]interface{}{
		"productId": id,
		"colorName": colorName,
		"size":      sizeLabel,
		"quantity":  delta,
	})
	return product, nil
}

// AddReview appends a review on behalf of an authenticated user. The
// timestamp is server-assigned by the repository.
func (s *ProductService) AddReview(productID, userID, userName string, rating int, comment string) (*models.Product, error) {
	review := &models.Review{
		UserID:   userID,
		UserName: userName,
		Rating:   rating,
		Comment:  comment,
	}
	product, err := s.repo.AddReview(productID, review)
	if err != nil {
		return nil, err
	}
	s.publish("review.created", map[string]interface{}{
		"productId": productID,
		"userId":    userID,
		"rating":    rating,
	})
	return product, nil
}

// publish sends a catalog event, logging failures instead of surfacing them:
// eventing is best-effort and never fails the request that triggered it.
func (s *ProductService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	payload["at"] = time.Now().Format(time.RFC3339)
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
