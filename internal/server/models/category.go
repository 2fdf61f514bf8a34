package models

// Category is referenced, never embedded, by Product.
type Category struct {
	ID   string
	Name string
}
