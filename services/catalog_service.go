package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxCategories    = 10
	imageUploadTTL   = 15 * time.Minute
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageUploader issues presigned object uploads.
type ImageUploader interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, map[string]string, error)
}

// CatalogService defines the catalog read and admin operations.
type CatalogService interface {
	ListProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, *ServiceError)
	GetProduct(ctx context.Context, id int64) (*models.Product, *ServiceError)
	ListCategories(ctx context.Context) ([]string, *ServiceError)
	CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, *ServiceError)
	UpdateProduct(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, *ServiceError)
	DeleteProduct(ctx context.Context, id int64) *ServiceError
	PresignImageUpload(ctx context.Context, id int64, contentType string) (*models.ImageUpload, *ServiceError)
}

type catalogServiceImpl struct {
	repo          repository.ProductRepository
	cache         CatalogCache
	uploader      ImageUploader
	publicBaseURL string
	logger        *zap.Logger
}

// NewCatalogService creates a new CatalogService. cache and uploader may be nil.
func NewCatalogService(
	repo repository.ProductRepository,
	cache CatalogCache,
	uploader ImageUploader,
	publicBaseURL string,
	logger *zap.Logger,
) CatalogService {
	return &catalogServiceImpl{
		repo:          repo,
		cache:         cache,
		uploader:      uploader,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

// ListProducts returns a page of products, newest first. A product matches
// the search when any whitespace-separated term appears in its text fields.
func (s *catalogServiceImpl) ListProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, *ServiceError) {
	q = normalizeQuery(q)

	cacheVersion := int64(-1)
	if s.cache != nil {
		page, v, ok := s.cache.GetList(ctx, q)
		if ok {
			return page, nil
		}
		cacheVersion = v
	}

	products, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, upstreamUnavailable("Failed to list products", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	page := &models.ProductPage{Products: products, Total: total, Page: q.Page, Limit: q.Limit}
	if s.cache != nil {
		s.cache.SetList(ctx, cacheVersion, q, page)
	}
	return page, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, id int64) (*models.Product, *ServiceError) {
	cacheVersion := int64(-1)
	if s.cache != nil {
		product, v, ok := s.cache.GetProduct(ctx, id)
		if ok {
			return product, nil
		}
		cacheVersion = v
	}

	product, svcErr := s.findProduct(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if s.cache != nil {
		s.cache.SetProduct(ctx, cacheVersion, product)
	}
	return product, nil
}

// ListCategories returns up to ten distinct keywords, newest products first.
func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]string, *ServiceError) {
	rows, err := s.repo.ListKeywords(ctx)
	if err != nil {
		s.logger.Error("Failed to list keywords", zap.Error(err))
		return nil, upstreamUnavailable("Failed to list categories", err)
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0, maxCategories)
	for _, row := range rows {
		for _, kw := range strings.Split(row, ",") {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			categories = append(categories, kw)
			if len(categories) == maxCategories {
				return categories, nil
			}
		}
	}
	return categories, nil
}

func (s *catalogServiceImpl) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, *ServiceError) {
	if svcErr := validateProductInput(in); svcErr != nil {
		return nil, svcErr
	}

	product := &models.Product{}
	in.Apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, internal("Failed to create product", err)
	}

	s.invalidate(ctx)
	s.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.String("price", product.Price.StringFixed(2)))
	return product, nil
}

func (s *catalogServiceImpl) UpdateProduct(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, *ServiceError) {
	if svcErr := validateProductInput(in); svcErr != nil {
		return nil, svcErr
	}

	product, svcErr := s.findProduct(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	in.Apply(product)

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, notFound("Product not found")
		}
		s.logger.Error("Failed to update product", zap.Int64("product_id", id), zap.Error(err))
		return nil, internal("Failed to update product", err)
	}

	s.invalidate(ctx)
	s.logger.Info("Product updated", zap.Int64("product_id", id))
	return product, nil
}

func (s *catalogServiceImpl) DeleteProduct(ctx context.Context, id int64) *ServiceError {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return notFound("Product not found")
		}
		s.logger.Error("Failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return internal("Failed to delete product", err)
	}

	s.invalidate(ctx)
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// PresignImageUpload returns a presigned PUT for a new image of the product.
// The caller saves the returned image_url on the product once uploaded.
func (s *catalogServiceImpl) PresignImageUpload(ctx context.Context, id int64, contentType string) (*models.ImageUpload, *ServiceError) {
	if s.uploader == nil {
		return nil, &ServiceError{
			Kind:       KindUpstreamUnavailable,
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Image uploads are not configured",
		}
	}
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, invalidRequest("Unsupported image content type")
	}
	if _, svcErr := s.findProduct(ctx, id); svcErr != nil {
		return nil, svcErr
	}

	key := fmt.Sprintf("products/%d/%s%s", id, uuid.NewString(), ext)
	url, headers, err := s.uploader.PresignPut(ctx, key, strings.ToLower(contentType), imageUploadTTL)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.Int64("product_id", id), zap.Error(err))
		return nil, upstreamUnavailable("Failed to prepare image upload", err)
	}

	return &models.ImageUpload{
		UploadURL: url,
		Headers:   headers,
		ImageURL:  s.publicBaseURL + "/" + key,
		ExpiresAt: time.Now().Add(imageUploadTTL).UTC(),
	}, nil
}

func (s *catalogServiceImpl) findProduct(ctx context.Context, id int64) (*models.Product, *ServiceError) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notFound("Product not found")
	}
	if err != nil {
		s.logger.Error("Failed to load product", zap.Int64("product_id", id), zap.Error(err))
		return nil, upstreamUnavailable("Failed to load product", err)
	}
	return product, nil
}

func (s *catalogServiceImpl) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

func validateProductInput(in *models.ProductInput) *ServiceError {
	if strings.TrimSpace(in.Name) == "" {
		return invalidRequest("Product name is required")
	}
	if in.Price.IsNegative() {
		return invalidRequest("Price must not be negative")
	}
	return nil
}

func normalizeQuery(q models.ProductQuery) models.ProductQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	return q
}
