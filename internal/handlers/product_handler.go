package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Reads are public, review
// submission needs an authenticated user, and every mutation is admin-only.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired, adminRequired fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/featured", h.HandleFeaturedProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", authRequired, adminRequired, h.HandleCreateProduct)
	productRoutes.Patch("/:id/stock", authRequired, adminRequired, h.HandleAdjustStock)
	productRoutes.Patch("/:id", authRequired, adminRequired, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", authRequired, adminRequired, h.HandleDeleteProduct)
	productRoutes.Post("/:id/reviews", authRequired, h.HandleAddReview)
}

// HandleListProducts runs a filtered, sorted, paginated catalog query.
// Malformed numeric parameters fail soft: they are treated as absent.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Search:       c.Query("search"),
		Brand:        c.Query("brand"),
		Category:     c.Query("category"),
		Gender:       c.Query("gender"),
		SortBy:       c.Query("sortBy"),
		Order:        c.Query("order"),
		FeaturedOnly: c.Query("featured") == "true",
	}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		filter.MaxPrice = &v
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = v
	}

	page, err := h.service.ListProducts(filter)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(page.Products),
		"total":   page.Total,
		"page":    page.Page,
		"pages":   page.Pages,
		"data":    page.Products,
	})
}

// HandleFeaturedProducts retrieves the top featured products by rating.
func (h *ProductHandler) HandleFeaturedProducts(c *fiber.Ctx) error {
	products, err := h.service.FeaturedProducts()
	if err != nil {
		log.Printf("Error listing featured products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve featured products",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(products),
		"data":    products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error getting product by ID %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// HandleCreateProduct creates a new product from a full payload.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		return validationError(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// UpdateProductRequest is a partial update: only non-nil fields are applied.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=3,max=100"`
	Brand       *string  `json:"brand" validate:"omitempty,oneof=Nike Adidas Puma Reebok Asics Converse"`
	Category    *string  `json:"category" validate:"omitempty,oneof=Running Casual Formal Sports Boots Sandals"`
	Gender      *string  `json:"gender" validate:"omitempty,oneof=Men Women Kids Unisex"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Image       *string  `json:"image" validate:"omitempty,max=500"`
	IsActive    *bool    `json:"isActive"`
	IsFeatured  *bool    `json:"isFeatured"`
}

func (req *UpdateProductRequest) fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Brand != nil {
		fields["brand"] = *req.Brand
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Gender != nil {
		fields["gender"] = *req.Gender
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		fields["is_featured"] = *req.IsFeatured
	}
	return fields
}

// HandleUpdateProduct applies a field-level merge to an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	product, err := h.service.UpdateProduct(productID, req.fields())
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error updating product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// HandleDeleteProduct hard-removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(productID); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error deleting product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{},
	})
}

// AdjustStockRequest targets one color/size pair with a signed delta.
// Quantity is a pointer so an explicit zero passes validation.
type AdjustStockRequest struct {
	ColorName string `json:"colorName" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"required"`
}

// HandleAdjustStock adds a signed quantity to one color/size stock count.
// A missing color and a missing size are reported as distinct errors.
func (h *ProductHandler) HandleAdjustStock(c *fiber.Ctx) error {
	productID := c.Params("id")
	var req AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing stock adjustment body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	product, err := h.service.AdjustStock(productID, req.ColorName, req.Size, *req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		case errors.Is(err, repositories.ErrColorNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Color %q not found on product", req.ColorName),
			})
		case errors.Is(err, repositories.ErrSizeNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Size %q not found for color %q", req.Size, req.ColorName),
			})
		}
		log.Printf("Error adjusting stock for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not adjust stock",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// AddReviewRequest is a customer review submission.
type AddReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// HandleAddReview appends a review by the authenticated user. A second
// review by the same user on the same product is rejected.
func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	productID := c.Params("id")
	userID, _ := c.Locals("user_id").(string)
	userName, _ := c.Locals("username").(string)

	var req AddReviewRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing review body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	product, err := h.service.AddReview(productID, userID, userName, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		case errors.Is(err, repositories.ErrDuplicateReview):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "You have already reviewed this product",
			})
		}
		log.Printf("Error adding review for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not add review",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// validationError maps validator failures to a 400 envelope with a
// field-by-field breakdown.
func validationError(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
