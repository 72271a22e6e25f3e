package models

import "time"

// Product represents a sellable catalog item. It is the sole owner of its
// embedded colors, sizes and reviews: they are created with the product,
// appended through it, and removed with it (hard delete, cascading).
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" validate:"required,min=3,max=100"`
	Brand       string    `json:"brand" validate:"required,oneof=Nike Adidas Puma Reebok Asics Converse"`
	Category    string    `json:"category" validate:"required,oneof=Running Casual Formal Sports Boots Sandals"`
	Gender      string    `json:"gender" validate:"required,oneof=Men Women Kids Unisex"`
	Price       float64   `json:"price" validate:"gte=0"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Image       string    `json:"image" validate:"omitempty,max=500"`
	IsActive    bool      `json:"isActive" gorm:"default:true"`
	IsFeatured  bool      `json:"isFeatured"`
	Rating      float64   `json:"rating"`
	NumReviews  int       `json:"numReviews"`
	TotalStock  int       `json:"totalStock"`
	Colors      []Color   `json:"colors" gorm:"constraint:OnDelete:CASCADE" validate:"required,min=1,dive"`
	Reviews     []Review  `json:"reviews" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Color is a product variant carrying its own per-size stock counts.
// Position preserves the order colors were submitted in.
type Color struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	ProductID string `json:"-" gorm:"index;type:varchar(36)"`
	Name      string `json:"name" validate:"required,min=1,max=50"`
	HexCode   string `json:"hexCode" validate:"required,hexcolor"`
	Position  int    `json:"-"`
	Sizes     []Size `json:"sizes" gorm:"constraint:OnDelete:CASCADE" validate:"required,min=1,dive"`
}

// Size holds the stock count for one size label of one color. Stock must be
// non-negative at creation; adjustments apply a signed delta with no floor.
type Size struct {
	ID       uint   `json:"-" gorm:"primaryKey"`
	ColorID  uint   `json:"-" gorm:"index"`
	Label    string `json:"size" validate:"required,min=1,max=10"`
	Stock    int    `json:"stock" validate:"gte=0"`
	Position int    `json:"-"`
}

// Review is a customer review. The composite unique index enforces at most
// one review per user per product at the store level.
type Review struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	ProductID string    `json:"-" gorm:"uniqueIndex:idx_reviews_product_user;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"uniqueIndex:idx_reviews_product_user;type:varchar(36)"`
	UserName  string    `json:"userName" gorm:"type:varchar(100)"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"omitempty,max=1000"`
	CreatedAt time.Time `json:"createdAt"`
}

// ComputeTotalStock sums the stock counts across all colors and sizes.
func (p *Product) ComputeTotalStock() int {
	total := 0
	for _, color := range p.Colors {
		for _, size := range color.Sizes {
			total += size.Stock
		}
	}
	return total
}
