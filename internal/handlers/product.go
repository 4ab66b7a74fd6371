package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/services"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

const (
	defaultPage        = 1
	defaultLimit       = 20
	maxLimit           = 100
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 16 << 20
	formFieldImage     = "image"
	formFieldTitle     = "title"
	formFieldDesc      = "description"
	formFieldPrice     = "price"
	formFieldStock     = "stock"
	formFieldCategory  = "category"
)

// ProductHandler provides HTTP handlers for the catalog.
type ProductHandler struct {
	products *services.ProductService
}

// NewProductHandler constructs a handler with the provided service.
func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ProductRouter registers catalog routes on the given router. Reads are
// public; writes require an admin identity.
func ProductRouter(r chi.Router, products *services.ProductService, tokens *token.Service) {
	handler := NewProductHandler(products)
	adminOnly := []func(http.Handler) http.Handler{RequireAuth(tokens), RequireRole(types.RoleAdmin)}

	r.Use(OptionalAuth(tokens))
	r.Get("/", handler.ListProducts)
	r.With(adminOnly...).Post("/", handler.CreateProduct)
	r.Get("/categories", handler.ListCategories)
	r.Get("/category/{category}", handler.ListByCategory)
	r.Route("/{productID}", func(r chi.Router) {
		r.Get("/", handler.GetProduct)
		r.Get("/image", handler.GetProductImage)
		r.With(adminOnly...).Put("/", handler.UpdateProduct)
		r.With(adminOnly...).Delete("/", handler.DeleteProduct)
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := parseProductFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.products.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	resp := ProductListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// GetProductImage streams the product's stored image.
func (h *ProductHandler) GetProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.products.GetImage(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product image not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch product image")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := h.products.ListByCategory(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, ProductListResponse{Items: items, Total: len(items)})
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := parseProductForm(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.products.Create(r.Context(), types.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	}, *req.Image)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := parseProductForm(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.products.Update(r.Context(), types.Product{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	}, req.Image)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ProductUpsertRequest represents the parsed multipart form payload.
type ProductUpsertRequest struct {
	Title       string
	Description string
	Price       float64
	Stock       int
	Category    string
	Image       *services.ProductImageUpload
}

// ProductListResponse is the paginated list response payload.
type ProductListResponse struct {
	Items []types.Product `json:"items"`
	Page  int             `json:"page,omitempty"`
	Limit int             `json:"limit,omitempty"`
	Total int             `json:"total"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

func parseProductFilter(r *http.Request) (store.ProductFilter, error) {
	query := r.URL.Query()
	filter := store.ProductFilter{
		Category: strings.TrimSpace(query.Get("category")),
		Search:   strings.TrimSpace(query.Get("search")),
	}

	if raw := strings.TrimSpace(query.Get("min_price")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return store.ProductFilter{}, errors.New("invalid min_price")
		}
		filter.MinPrice = value
	}
	if raw := strings.TrimSpace(query.Get("max_price")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return store.ProductFilter{}, errors.New("invalid max_price")
		}
		filter.MaxPrice = value
	}

	return filter, nil
}

func parseProductID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

func parseProductForm(r *http.Request, imageRequired bool) (ProductUpsertRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return ProductUpsertRequest{}, errors.New("invalid multipart form")
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	if title == "" {
		return ProductUpsertRequest{}, errors.New("title is required")
	}

	description := strings.TrimSpace(r.FormValue(formFieldDesc))
	if description == "" {
		return ProductUpsertRequest{}, errors.New("description is required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(formFieldPrice)), 64)
	if err != nil || price < 0 {
		return ProductUpsertRequest{}, errors.New("invalid price")
	}

	stock, err := strconv.Atoi(strings.TrimSpace(r.FormValue(formFieldStock)))
	if err != nil || stock < 0 {
		return ProductUpsertRequest{}, errors.New("invalid stock")
	}

	category := strings.TrimSpace(r.FormValue(formFieldCategory))
	if category == "" {
		return ProductUpsertRequest{}, errors.New("category is required")
	}

	image, err := parseImageFile(r.MultipartForm)
	if err != nil {
		return ProductUpsertRequest{}, err
	}
	if image == nil && imageRequired {
		return ProductUpsertRequest{}, errors.New("image file is required")
	}

	return ProductUpsertRequest{
		Title:       title,
		Description: description,
		Price:       price,
		Stock:       stock,
		Category:    category,
		Image:       image,
	}, nil
}

func parseImageFile(form *multipart.Form) (*services.ProductImageUpload, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.ProductImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
