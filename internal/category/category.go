package category

// Category groups products in the catalog. ParentID is set for subcategories.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	NameUz   string `json:"name_uz"`
	Slug     string `json:"slug"`
	ParentID *int   `json:"parent_id"`
}
