package favorite

import (
	"time"

	"github.com/wichananm65/partyland-backend/internal/product"
)

// Favorite marks a product saved by a site user.
type Favorite struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	ProductID int       `json:"-"`
	AddedAt   time.Time `json:"added_at"`
}

// Entry is a favorite together with the product it points at.
type Entry struct {
	Favorite
	Product product.Product `json:"product"`
}
