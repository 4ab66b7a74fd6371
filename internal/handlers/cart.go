package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/services"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

// CartHandler provides HTTP handlers for the shopping cart.
type CartHandler struct {
	carts *services.CartService
}

// NewCartHandler constructs a handler with the provided service.
func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// CartRouter registers cart routes on the given router. All routes
// require a stored-account identity; the built-in administrator has no
// cart.
func CartRouter(r chi.Router, carts *services.CartService, tokens *token.Service) {
	handler := NewCartHandler(carts)

	r.Use(RequireAuth(tokens))
	r.Get("/", handler.GetCart)
	r.Post("/items", handler.AddItem)
	r.Put("/items/{productID}", handler.UpdateItem)
	r.Delete("/items/{productID}", handler.RemoveItem)
	r.Delete("/", handler.ClearCart)
	r.Post("/checkout", handler.Checkout)
}

// cartUserID resolves the authenticated identity to an account id. The
// built-in administrator is rejected with 403 since it has no account.
func cartUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if identity.BuiltIn {
		writeError(w, http.StatusForbidden, "the built-in administrator has no cart")
		return 0, false
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.ProductID < 1 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	cart, err := h.carts.Add(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeCartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	productID, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CartQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "invalid quantity")
		return
	}

	cart, err := h.carts.UpdateItem(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		writeCartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	productID, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.carts.Remove(r.Context(), userID, productID)
	if err != nil {
		writeCartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := cartUserID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Checkout(r.Context(), userID)
	if err != nil {
		writeCartError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckoutResponse{
		Message: "order placed successfully",
		Cart:    newCartResponse(cart),
	})
}

func writeCartError(w http.ResponseWriter, err error) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusBadRequest, stockErr.Error())
	case errors.Is(err, services.ErrProductNotInCart):
		writeError(w, http.StatusNotFound, "product not in cart")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, store.ErrInsufficientStock):
		writeError(w, http.StatusBadRequest, "insufficient stock")
	default:
		writeError(w, http.StatusInternalServerError, "failed to update cart")
	}
}

type CartItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse decorates the stored cart with derived totals.
type CartResponse struct {
	Cart      types.Cart `json:"cart"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

type CheckoutResponse struct {
	Message string       `json:"message"`
	Cart    CartResponse `json:"cart"`
}

func newCartResponse(cart types.Cart) CartResponse {
	count := 0
	for _, item := range cart.Items {
		count += item.Quantity
	}
	return CartResponse{
		Cart:      cart,
		Total:     cart.Total(),
		ItemCount: count,
	}
}
