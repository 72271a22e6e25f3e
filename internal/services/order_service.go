package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderHistory retrieves the order history for one user.
func (s *OrderService) GetOrderHistory(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CreateOrder creates a new order for a user. Each item's price is snapshotted
// from the catalog at order time.
func (s *OrderService) CreateOrder(userID string, items []models.OrderItem) (*models.Order, error) {
	var totalAmount float64
	var processedItems []models.OrderItem

	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found: %w", item.ProductID, err)
		}
		if product.TotalStock < item.Quantity {
			return nil, fmt.Errorf("insufficient stock for product %s (requested: %d, available: %d)",
				product.Name, item.Quantity, product.TotalStock)
		}

		itemPrice := product.Price
		processedItems = append(processedItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     itemPrice,
		})
		totalAmount += itemPrice * float64(item.Quantity)
	}

	newOrder := &models.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		Items:       processedItems,
		TotalAmount: totalAmount,
		Status:      "pending",
	}

	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	if s.events != nil {
		body, err := json.Marshal(map[string]interface{}{
			"orderId": newOrder.ID,
			"userId":  newOrder.UserID,
			"status":  newOrder.Status,
			"total":   newOrder.TotalAmount,
		})
		if err != nil {
			log.Printf("Failed to marshal order event: %v", err)
		} else if err := s.events.Publish("order.created", body); err != nil {
			log.Printf("Warning: failed to publish order created event for order %s: %v", newOrder.ID, err)
		}
	}

	return newOrder, nil
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	validStatuses := map[string]bool{"pending": true, "processing": true, "shipped": true, "delivered": true, "cancelled": true}
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}
