package categories

import (
	"context"

	"github.com/dcampelo/storefront/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Category, error)
}
