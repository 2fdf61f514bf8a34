package repomanager

import (
	"context"
	"database/sql"

	"github.com/dcampelo/storefront/internal/dbx"
	"github.com/dcampelo/storefront/internal/server/repositories/categories"
	"github.com/dcampelo/storefront/internal/server/repositories/products"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run several repositories inside one transaction.
type RepositoryManager interface {
	Products(db dbx.DBTX) products.Repository
	Categories(db dbx.DBTX) categories.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
