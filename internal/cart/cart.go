package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/product"
)

// Line is one product in a user's cart. OrderID is set once checkout
// consumes the line; consumed lines are no longer part of the cart.
type Line struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	ProductID int       `json:"-"`
	Quantity  int       `json:"quantity"`
	OrderID   *int      `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// ProductSummary is the short product shape embedded in cart items.
type ProductSummary struct {
	ID      int             `json:"id"`
	Title   string          `json:"title"`
	TitleUz string          `json:"title_uz"`
	Price   decimal.Decimal `json:"price"`
}

// Item is a cart line joined with its product.
type Item struct {
	Line
	Product ProductSummary  `json:"product"`
	Total   decimal.Decimal `json:"total"`
}

func newItem(l Line, p product.Product) Item {
	return Item{
		Line:    l,
		Product: ProductSummary{ID: p.ID, Title: p.Title, TitleUz: p.TitleUz, Price: p.Price},
		Total:   p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
	}
}

// Cart is the unconsumed content of a user's cart.
type Cart struct {
	Items      []Item          `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// LineIDs returns the ids of every line in the cart.
func (c Cart) LineIDs() []int {
	ids := make([]int, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ID)
	}
	return ids
}
