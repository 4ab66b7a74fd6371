package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

// ProductFilter narrows List results. Zero values mean "no constraint".
type ProductFilter struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Search   string
}

// ProductRepository handles persistence for catalog items.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, title, description, price, stock, category, image_key, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (types.Product, error) {
	var product types.Product
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Category,
		&product.Image.Key,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return product, nil
}

// List returns products matching filter, newest first, plus the total
// match count for pagination.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter, offset, limit int) ([]types.Product, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	where, args := buildProductWhere(filter)

	var total int
	countQuery := `SELECT COUNT(1) FROM products` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT `+productColumns+`
		FROM products%s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d`, where, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]types.Product, 0, limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func buildProductWhere(filter ProductFilter) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.MinPrice > 0 {
		args = append(args, filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ProductRepository) Get(ctx context.Context, id int) (types.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	const query = `
		INSERT INTO products (title, description, price, stock, category, image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		product.Title,
		product.Description,
		product.Price,
		product.Stock,
		product.Category,
		product.Image.Key,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID); err != nil {
		return types.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product types.Product) (types.Product, error) {
	product.UpdatedAt = time.Now()

	const query = `
		UPDATE products
		SET title = $1,
			description = $2,
			price = $3,
			stock = $4,
			category = $5,
			image_key = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		product.Title,
		product.Description,
		product.Price,
		product.Stock,
		product.Category,
		product.Image.Key,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return types.Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Product{}, err
	}
	if affected == 0 {
		return types.Product{}, ErrNotFound
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCategory returns all products in one category, newest first.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]types.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE category = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories returns the distinct category names in use.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT category FROM products ORDER BY category`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}
