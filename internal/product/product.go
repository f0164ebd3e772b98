package product

import "github.com/shopspring/decimal"

// Product is a catalog item. Price is kept as an exact decimal amount in sums.
type Product struct {
	ID            int             `json:"id"`
	Title         string          `json:"title"`
	TitleUz       string          `json:"title_uz"`
	Description   string          `json:"description"`
	DescriptionUz string          `json:"description_uz"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    *int            `json:"category_id"`
}

// ListFilter narrows product listings. Zero values match everything.
type ListFilter struct {
	CategoryID int
	Search     string
}
