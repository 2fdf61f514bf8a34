package products

import (
	"context"

	"github.com/dcampelo/storefront/internal/server/models"
)

type Repository interface {
	// Save persists the sparse patch. An empty id creates a new product
	// and returns its assigned id; otherwise the existing record is
	// partially updated and its id confirmed. A slug collision is
	// reported as common.ErrSlugConflict.
	Save(ctx context.Context, id string, patch *models.ProductPatch) (string, error)

	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, uriID string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Delete(ctx context.Context, id string) error
}
