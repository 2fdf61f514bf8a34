// Package products provides the PostgreSQL-backed repository for product
// persistence, including the partial-field updates the submission workflow
// produces.
package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dcampelo/storefront/internal/common"
	"github.com/dcampelo/storefront/internal/dbx"
	"github.com/dcampelo/storefront/internal/server/models"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements product storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, id string, patch *models.ProductPatch) (string, error) {
	if id == "" {
		return r.insert(ctx, patch)
	}
	return r.update(ctx, id, patch)
}

// columns flattens the patch into column/value pairs, skipping nil fields
// so untouched attributes never appear in the statement.
func columns(patch *models.ProductPatch) ([]string, []any, error) {
	var cols []string
	var args []any

	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}

	if patch.URIID != nil {
		add("uri_id", *patch.URIID)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Keywords != nil {
		add("keywords", *patch.Keywords)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Size != nil {
		add("size", *patch.Size)
	}
	if patch.Search != nil {
		add("search", *patch.Search)
	}
	if patch.Images != nil {
		js, err := json.Marshal(patch.Images)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal images: %w", err)
		}
		add("images", js)
	}

	return cols, args, nil
}

func (r *PostgresRepository) insert(ctx context.Context, patch *models.ProductPatch) (string, error) {
	cols, args, err := columns(patch)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	cols = append([]string{"id"}, cols...)
	args = append([]any{id}, args...)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO products (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", mapDBError(err)
	}

	return id, nil
}

func (r *PostgresRepository) update(ctx context.Context, id string, patch *models.ProductPatch) (string, error) {
	cols, args, err := columns(patch)
	if err != nil {
		return "", err
	}

	// empty patch: nothing to write, the record stays as-is
	if len(cols) == 0 {
		return id, nil
	}

	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE products SET %s WHERE id = $%d`,
		strings.Join(assignments, ", "), len(args),
	)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", mapDBError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return "", common.ErrorNotFound
	}

	return id, nil
}

const productColumns = `id, uri_id, name, description, keywords, status, category, size, images, search, created_at`

func scanProduct(scan func(dest ...any) error) (*models.Product, error) {
	var p models.Product
	var images []byte

	err := scan(&p.ID, &p.URIID, &p.Name, &p.Description, &p.Keywords,
		&p.Status, &p.Category, &p.Size, &images, &p.Search, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, uriID string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE uri_id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, uriID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	defer rows.Close()

	var result []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// mapDBError translates a slug unique violation into the sentinel the
// orchestrator matches on; everything else is wrapped generically.
func mapDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		strings.Contains(pgErr.ConstraintName, "uri_id") {
		return common.ErrSlugConflict
	}
	return fmt.Errorf("db error: %w", err)
}
