// Package models contains the catalog domain entities shared between the
// workflow core, the repositories and the HTTP layer.
package models

import "time"

// ProductStatus is the enumerated publication state of a product.
type ProductStatus string

const (
	StatusDraft    ProductStatus = "draft"
	StatusActive   ProductStatus = "active"
	StatusArchived ProductStatus = "archived"
)

// Product is the catalog entity managed by the admin UI.
//
// URIID is the unique, human-readable slug used in storefront URLs.
// Images holds image identifiers; the stored object for an identifier img
// lives at "{ID}/{img}" plus the target image extension.
// Search is a denormalized composite of name, status, category name and
// creation date, recomputed whenever any of those change.
type Product struct {
	ID          string
	URIID       string
	Name        string
	Description string
	Keywords    string
	Status      ProductStatus
	Category    string
	Size        string
	Images      []string
	Search      string
	CreatedAt   time.Time
}

// ProductPatch is a sparse update over the product's mutable attributes.
// A nil field means "unchanged", not "cleared". Images follows the same
// convention with a nil slice.
type ProductPatch struct {
	URIID       *string
	Name        *string
	Description *string
	Keywords    *string
	Status      *string
	Category    *string
	Size        *string
	Search      *string
	Images      []string
}

// IsZero reports whether the patch carries no changes at all.
func (p *ProductPatch) IsZero() bool {
	return p.URIID == nil && p.Name == nil && p.Description == nil &&
		p.Keywords == nil && p.Status == nil && p.Category == nil &&
		p.Size == nil && p.Search == nil && p.Images == nil
}
