package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

// CartRepository defines persistence operations for carts.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID int) (types.Cart, error)
	CreateForUser(ctx context.Context, userID int) (types.Cart, error)
	SetItemQuantity(ctx context.Context, cartID, productID, quantity int) error
	GetItemQuantity(ctx context.Context, cartID, productID int) (int, error)
	RemoveItem(ctx context.Context, cartID, productID int) error
	ClearItems(ctx context.Context, cartID int) error
	Checkout(ctx context.Context, cartID int) error
}

// InsufficientStockError reports how many units were actually available.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items available in stock", e.Available)
}

// ErrProductNotInCart is returned when updating a line that does not exist.
var ErrProductNotInCart = errors.New("product not in cart")

// CartService encapsulates cart use-cases. Quantities are checked
// against current product stock on every mutation; the final check
// happens transactionally at checkout.
type CartService struct {
	carts    CartRepository
	products ProductRepository
}

func NewCartService(carts CartRepository, products ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *CartService) Get(ctx context.Context, userID int) (types.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.carts.CreateForUser(ctx, userID)
		}
		return types.Cart{}, err
	}
	return cart, nil
}

// Add puts quantity units of a product into the cart, merging with any
// existing line.
func (s *CartService) Add(ctx context.Context, userID, productID, quantity int) (types.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return types.Cart{}, err
	}
	if product.Stock < quantity {
		return types.Cart{}, &InsufficientStockError{Available: product.Stock}
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return types.Cart{}, err
	}

	existing, err := s.carts.GetItemQuantity(ctx, cart.ID, productID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.Cart{}, err
	}
	total := existing + quantity
	if total > product.Stock {
		return types.Cart{}, &InsufficientStockError{Available: product.Stock}
	}

	if err := s.carts.SetItemQuantity(ctx, cart.ID, productID, total); err != nil {
		return types.Cart{}, err
	}
	return s.carts.GetByUserID(ctx, userID)
}

// UpdateItem replaces the quantity of an existing line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID, quantity int) (types.Cart, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return types.Cart{}, err
	}
	if quantity > product.Stock {
		return types.Cart{}, &InsufficientStockError{Available: product.Stock}
	}

	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return types.Cart{}, err
	}

	if _, err := s.carts.GetItemQuantity(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Cart{}, ErrProductNotInCart
		}
		return types.Cart{}, err
	}

	if err := s.carts.SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return types.Cart{}, err
	}
	return s.carts.GetByUserID(ctx, userID)
}

// Remove drops a product line from the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID int) (types.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return types.Cart{}, err
	}
	if err := s.carts.RemoveItem(ctx, cart.ID, productID); err != nil {
		return types.Cart{}, err
	}
	return s.carts.GetByUserID(ctx, userID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID int) (types.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return types.Cart{}, err
	}
	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return types.Cart{}, err
	}
	return s.carts.GetByUserID(ctx, userID)
}

// Checkout decrements stock for every line and empties the cart in one
// transaction.
func (s *CartService) Checkout(ctx context.Context, userID int) (types.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return types.Cart{}, err
	}
	if err := s.carts.Checkout(ctx, cart.ID); err != nil {
		return types.Cart{}, err
	}
	return s.carts.GetByUserID(ctx, userID)
}
