package catalog

import (
	"fmt"
	"time"

	"github.com/dcampelo/storefront/internal/server/models"
)

// searchDateFormat renders the creation date for the search composite.
const searchDateFormat = "2 Jan 2006"

// BuildSearch derives the denormalized search string from the attributes
// full-text lookup runs over. The result is a comma-joined composite of
// name, status, category name and a human-readable creation date.
func BuildSearch(name string, status models.ProductStatus, categoryName string, createdAt time.Time) string {
	return fmt.Sprintf("%s, %s, %s, %s", name, status, categoryName, createdAt.Format(searchDateFormat))
}

// CategoryName resolves a category id against the supplied list. An unknown
// id yields an empty name; the search composite then carries an empty
// segment instead of failing.
func CategoryName(categories []models.Category, id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
