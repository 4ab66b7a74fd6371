package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

// CartRepository handles persistence for carts and their items.
type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUserID loads a user's cart with its items and product details.
func (r *CartRepository) GetByUserID(ctx context.Context, userID int) (types.Cart, error) {
	const query = `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1`
	var cart types.Cart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Cart{}, ErrNotFound
		}
		return types.Cart{}, err
	}

	items, err := r.loadItems(ctx, cart.ID)
	if err != nil {
		return types.Cart{}, err
	}
	cart.Items = items
	return cart, nil
}

func (r *CartRepository) loadItems(ctx context.Context, cartID int) ([]types.CartItem, error) {
	const query = `
		SELECT p.id, p.title, p.description, p.price, p.stock, p.category, p.image_key, p.created_at, p.updated_at,
			ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.CartItem, 0)
	for rows.Next() {
		var item types.CartItem
		if err := rows.Scan(
			&item.Product.ID,
			&item.Product.Title,
			&item.Product.Description,
			&item.Product.Price,
			&item.Product.Stock,
			&item.Product.Category,
			&item.Product.Image.Key,
			&item.Product.CreatedAt,
			&item.Product.UpdatedAt,
			&item.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateForUser creates an empty cart for the user.
func (r *CartRepository) CreateForUser(ctx context.Context, userID int) (types.Cart, error) {
	now := time.Now()
	cart := types.Cart{
		UserID:    userID,
		Items:     []types.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	const query = `
		INSERT INTO carts (user_id, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID, now, now).Scan(&cart.ID); err != nil {
		return types.Cart{}, err
	}
	return cart, nil
}

// SetItemQuantity inserts the item or replaces its quantity.
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, productID, quantity int) error {
	const query = `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// GetItemQuantity returns the quantity of a product in the cart, or
// ErrNotFound when the product is not in the cart.
func (r *CartRepository) GetItemQuantity(ctx context.Context, cartID, productID int) (int, error) {
	const query = `
		SELECT quantity
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`
	var quantity int
	err := r.db.QueryRowContext(ctx, query, cartID, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return quantity, nil
}

// RemoveItem deletes a product line from the cart. Removing a product
// that is not in the cart is not an error.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID int) error {
	const query = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// ClearItems removes every line from the cart.
func (r *CartRepository) ClearItems(ctx context.Context, cartID int) error {
	const query = `DELETE FROM cart_items WHERE cart_id = $1`
	if _, err := r.db.ExecContext(ctx, query, cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// Checkout atomically decrements stock for every line and clears the
// cart. If any product lacks stock the whole transaction rolls back
// with ErrInsufficientStock.
func (r *CartRepository) Checkout(ctx context.Context, cartID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const itemsQuery = `
		SELECT product_id, quantity
		FROM cart_items
		WHERE cart_id = $1`
	rows, err := tx.QueryContext(ctx, itemsQuery, cartID)
	if err != nil {
		return err
	}

	type line struct {
		productID int
		quantity  int
	}
	lines := make([]line, 0)
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	const decrementQuery = `
		UPDATE products
		SET stock = stock - $1,
			updated_at = $2
		WHERE id = $3 AND stock >= $1`
	now := time.Now()
	for _, l := range lines {
		result, err := tx.ExecContext(ctx, decrementQuery, l.quantity, now, l.productID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientStock
		}
	}

	const clearQuery = `DELETE FROM cart_items WHERE cart_id = $1`
	if _, err := tx.ExecContext(ctx, clearQuery, cartID); err != nil {
		return err
	}
	const touchQuery = `UPDATE carts SET updated_at = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, touchQuery, now, cartID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *CartRepository) touch(ctx context.Context, cartID int) error {
	const query = `UPDATE carts SET updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), cartID)
	return err
}
