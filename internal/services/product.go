package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/storage"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

// ProductRepository defines persistence operations for catalog items.
type ProductRepository interface {
	List(ctx context.Context, filter store.ProductFilter, offset, limit int) ([]types.Product, int, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	Delete(ctx context.Context, id int) error
	ListByCategory(ctx context.Context, category string) ([]types.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// ProductImageUpload is a raw image to store alongside a product.
type ProductImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductService encapsulates catalog use-cases. Images live in object
// storage under uuid-based keys; the product row keeps the key.
type ProductService struct {
	repo    ProductRepository
	objects *storage.Storage
}

func NewProductService(repo ProductRepository, objects *storage.Storage) *ProductService {
	return &ProductService{repo: repo, objects: objects}
}

func (s *ProductService) List(ctx context.Context, filter store.ProductFilter, offset, limit int) ([]types.Product, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]types.Product, error) {
	return s.repo.ListByCategory(ctx, category)
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Create uploads the image and inserts the product row.
func (s *ProductService) Create(ctx context.Context, product types.Product, image ProductImageUpload) (types.Product, error) {
	key, err := s.putImage(ctx, image)
	if err != nil {
		return types.Product{}, err
	}
	product.Image.Key = key

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		// Don't leave an orphaned object behind.
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			slog.Error("failed to delete orphaned product image", slog.String("key", key), slog.String("error", delErr.Error()))
		}
		return types.Product{}, err
	}
	return created, nil
}

// Update replaces the product row and, when a new image is provided,
// swaps the stored object and removes the old one.
func (s *ProductService) Update(ctx context.Context, product types.Product, image *ProductImageUpload) (types.Product, error) {
	current, err := s.repo.Get(ctx, product.ID)
	if err != nil {
		return types.Product{}, err
	}

	product.Image.Key = current.Image.Key
	if image != nil {
		key, err := s.putImage(ctx, *image)
		if err != nil {
			return types.Product{}, err
		}
		product.Image.Key = key
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return types.Product{}, err
	}

	if image != nil && current.Image.Key != "" {
		if err := s.objects.Delete(ctx, current.Image.Key); err != nil {
			slog.Error("failed to delete replaced product image", slog.String("key", current.Image.Key), slog.String("error", err.Error()))
		}
	}
	return updated, nil
}

// Delete removes the product row and its stored image.
func (s *ProductService) Delete(ctx context.Context, id int) error {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if product.Image.Key != "" {
		if err := s.objects.Delete(ctx, product.Image.Key); err != nil {
			slog.Error("failed to delete product image", slog.String("key", product.Image.Key), slog.String("error", err.Error()))
		}
	}
	return nil
}

// GetImage opens the stored image for a product.
func (s *ProductService) GetImage(ctx context.Context, id int) (io.ReadCloser, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Image.Key == "" {
		return nil, store.ErrNotFound
	}
	return s.objects.Get(ctx, product.Image.Key)
}

func (s *ProductService) putImage(ctx context.Context, image ProductImageUpload) (string, error) {
	if len(image.Data) == 0 {
		return "", errors.New("image data is empty")
	}
	key := "products/" + uuid.NewString() + path.Ext(image.Filename)
	err := s.objects.Put(ctx, key, bytes.NewReader(image.Data), int64(len(image.Data)), image.ContentType)
	if err != nil {
		return "", err
	}
	return key, nil
}
