package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. All of them require an
// authenticated user; listing everything and changing status are admin-only.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired, adminRequired fiber.Handler) {
	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/all", adminRequired, h.HandleGetAllOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", adminRequired, h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves the order history of the authenticated user.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	orders, err := h.service.GetOrderHistory(userID)
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(orders),
		"data":    orders,
	})
}

// HandleGetAllOrders retrieves every order in the store.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(orders),
		"data":    orders,
	})
}

// HandleGetOrderByID retrieves a single order. Customers can only see their
// own orders; admins can see any.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}

	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	if order.UserID != userID && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not have access to this order",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	Items []models.OrderItem `json:"items"`
}

// HandleCreateOrder places an order for the authenticated user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "At least one item is required for an order",
		})
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Each item needs a product ID and a positive quantity",
			})
		}
	}

	createdOrder, err := h.service.CreateOrder(userID, req.Items)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		if errors.Is(err, repositories.ErrProductNotFound) || strings.Contains(err.Error(), "insufficient stock") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Could not place order",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    createdOrder,
	})
}

// UpdateOrderStatusRequest carries the new status for an order.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Status is required for order status update",
		})
	}

	if err := h.service.UpdateOrderStatus(orderID, req.Status); err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		if strings.Contains(err.Error(), "invalid order status") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, req.Status),
	})
}
