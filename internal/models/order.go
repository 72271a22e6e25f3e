package models

import "time"

// OrderItem represents a single item within an order. Price is the product
// price at the time the order was placed.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primaryKey"`
	OrderID   string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"productId" gorm:"type:varchar(36)"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price"`
}

// Order represents a customer order.
type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string      `json:"userId" gorm:"index;type:varchar(36)"`
	Items       []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"` // pending, processing, shipped, delivered, cancelled
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
