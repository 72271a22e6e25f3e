package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Featured(limit int) ([]models.Product, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateFields(id string, fields map[string]interface{}) (*models.Product, error) {
	args := m.Called(id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(id, colorName, sizeLabel string, delta int) (*models.Product, error) {
	args := m.Called(id, colorName, sizeLabel, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) AddReview(id string, review *models.Review) (*models.Product, error) {
	args := m.Called(id, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

func TestProductService_ListProducts_NormalizesPaging(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expected := []models.Product{{ID: "1", Name: "Product A"}}

	// Garbage page/limit fall back to page 1 with the default page size
	mockRepo.On("List", repositories.ProductFilter{Page: 1, Limit: services.DefaultPageSize}).
		Return(expected, int64(25), nil).Once()

	page, err := service.ListProducts(repositories.ProductFilter{Page: -3, Limit: 0})
	assert.NoError(t, err)
	assert.Equal(t, expected, page.Products)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Pages) // ceil(25/12)
	mockRepo.AssertExpectations(t)

	// Oversized limits are capped
	mockRepo.On("List", repositories.ProductFilter{Page: 2, Limit: services.MaxPageSize}).
		Return([]models.Product{}, int64(0), nil).Once()

	page, err = service.ListProducts(repositories.ProductFilter{Page: 2, Limit: 5000})
	assert.NoError(t, err)
	assert.Equal(t, 0, page.Pages)
	mockRepo.AssertExpectations(t)
}

func TestProductService_ListProducts_QueryFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("List", mock.AnythingOfType("repositories.ProductFilter")).
		Return(nil, int64(0), fmt.Errorf("database error")).Once()

	page, err := service.ListProducts(repositories.ProductFilter{})
	assert.Error(t, err)
	assert.Nil(t, page)
	mockRepo.AssertExpectations(t)
}

func TestProductService_FeaturedProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expected := []models.Product{{ID: "1", Name: "Product A", Rating: 4.9}}
	mockRepo.On("Featured", services.FeaturedLimit).Return(expected, nil).Once()

	products, err := service.FeaturedProducts()
	assert.NoError(t, err)
	assert.Equal(t, expected, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_PublishesEvent(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockEventPublisher)
	service := services.NewProductService(mockRepo, mockEvents)

	newProduct := &models.Product{Name: "New Product", Brand: "Nike", Price: 50.0}

	mockRepo.On("Create", newProduct).Return(nil).Once()
	mockEvents.On("Publish", "product.created", mock.AnythingOfType("[]uint8")).Return(nil).Once()

	err := service.CreateProduct(newProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)

	// A repository failure suppresses the event
	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(newProduct)
	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestProductService_AdjustStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockEventPublisher)
	service := services.NewProductService(mockRepo, mockEvents)

	updated := &models.Product{ID: "p-1", TotalStock: 7}
	mockRepo.On("AdjustStock", "p-1", "Red", "9", -3).Return(updated, nil).Once()
	mockEvents.On("Publish", "product.stock_adjusted", mock.AnythingOfType("[]uint8")).Return(nil).Once()

	product, err := service.AdjustStock("p-1", "Red", "9", -3)
	assert.NoError(t, err)
	assert.Equal(t, updated, product)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)

	// Targeted not-found errors pass through untouched, without an event
	mockRepo.On("AdjustStock", "p-1", "Blue", "9", -3).
		Return(nil, fmt.Errorf("color %q: %w", "Blue", repositories.ErrColorNotFound)).Once()

	_, err = service.AdjustStock("p-1", "Blue", "9", -3)
	assert.ErrorIs(t, err, repositories.ErrColorNotFound)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestProductService_AddReview(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	updated := &models.Product{ID: "p-1", NumReviews: 1, Rating: 4}
	mockRepo.On("AddReview", "p-1", mock.MatchedBy(func(r *models.Review) bool {
		return r.UserID == "u-1" && r.UserName == "alice" && r.Rating == 4 && r.Comment == "nice"
	})).Return(updated, nil).Once()

	product, err := service.AddReview("p-1", "u-1", "alice", 4, "nice")
	assert.NoError(t, err)
	assert.Equal(t, updated, product)
	mockRepo.AssertExpectations(t)

	// Duplicate reviews surface as a conflict
	mockRepo.On("AddReview", "p-1", mock.AnythingOfType("*models.Review")).
		Return(nil, fmt.Errorf("user u-1: %w", repositories.ErrDuplicateReview)).Once()

	_, err = service.AddReview("p-1", "u-1", "alice", 5, "again")
	assert.ErrorIs(t, err, repositories.ErrDuplicateReview)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Delete", "p-1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct("p-1"))
	mockRepo.AssertExpectations(t)

	mockRepo.On("Delete", "missing").
		Return(fmt.Errorf("product missing: %w", repositories.ErrProductNotFound)).Once()
	assert.ErrorIs(t, service.DeleteProduct("missing"), repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}
