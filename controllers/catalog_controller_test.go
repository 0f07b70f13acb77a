package controllers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jjrmrcly79/naturalezamistica/controllers"
	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/routes"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock CatalogService ---

type mockCatalogService struct {
	listFn       func(ctx context.Context, q models.ProductQuery) (*models.ProductPage, *services.ServiceError)
	getFn        func(ctx context.Context, id int64) (*models.Product, *services.ServiceError)
	categoriesFn func(ctx context.Context) ([]string, *services.ServiceError)
	createFn     func(ctx context.Context, in *models.ProductInput) (*models.Product, *services.ServiceError)
	updateFn     func(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, *services.ServiceError)
	deleteFn     func(ctx context.Context, id int64) *services.ServiceError
	presignFn    func(ctx context.Context, id int64, contentType string) (*models.ImageUpload, *services.ServiceError)
}

func (m *mockCatalogService) ListProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, *services.ServiceError) {
	return m.listFn(ctx, q)
}
func (m *mockCatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, *services.ServiceError) {
	return m.getFn(ctx, id)
}
func (m *mockCatalogService) ListCategories(ctx context.Context) ([]string, *services.ServiceError) {
	return m.categoriesFn(ctx)
}
func (m *mockCatalogService) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, *services.ServiceError) {
	return m.createFn(ctx, in)
}
func (m *mockCatalogService) UpdateProduct(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, *services.ServiceError) {
	return m.updateFn(ctx, id, in)
}
func (m *mockCatalogService) DeleteProduct(ctx context.Context, id int64) *services.ServiceError {
	return m.deleteFn(ctx, id)
}
func (m *mockCatalogService) PresignImageUpload(ctx context.Context, id int64, contentType string) (*models.ImageUpload, *services.ServiceError) {
	return m.presignFn(ctx, id, contentType)
}

// --- Helpers ---

func allowAdmin(c *gin.Context) { c.Next() }

func setupCatalogRouter(svc services.CatalogService) *gin.Engine {
	r := gin.New()
	routes.RegisterCatalogRoutes(r, controllers.NewCatalogController(svc, zap.NewNop()))
	routes.RegisterAdminRoutes(r, controllers.NewAdminController(svc, zap.NewNop()), allowAdmin)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var notFoundErr = &services.ServiceError{Kind: services.KindNotFound, StatusCode: http.StatusNotFound, Message: "Product not found"}

// --- Tests ---

func TestListProducts_PassesQuery(t *testing.T) {
	var got models.ProductQuery
	svc := &mockCatalogService{listFn: func(_ context.Context, q models.ProductQuery) (*models.ProductPage, *services.ServiceError) {
		got = q
		return &models.ProductPage{
			Products: []models.Product{{ID: 3, Name: "Cuarzo rosa", Price: decimal.RequireFromString("12.00")}},
			Total:    21,
			Page:     q.Page,
			Limit:    q.Limit,
		}, nil
	}}
	r := setupCatalogRouter(svc)

	w := doRequest(r, http.MethodGet, "/products?search=lavanda+rosa&category=aceites&page=2&limit=10", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ProductQuery{Search: "lavanda rosa", Category: "aceites", Page: 2, Limit: 10}, got)
	assert.Contains(t, w.Body.String(), `"totalPages":3`)
	assert.Contains(t, w.Body.String(), `"producto":"Cuarzo rosa"`)
}

func TestListProducts_InvalidPagination(t *testing.T) {
	r := setupCatalogRouter(&mockCatalogService{})

	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/products?page=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/products?limit=abc", "").Code)
}

func TestListProducts_LimitCapped(t *testing.T) {
	var got models.ProductQuery
	svc := &mockCatalogService{listFn: func(_ context.Context, q models.ProductQuery) (*models.ProductPage, *services.ServiceError) {
		got = q
		return &models.ProductPage{Products: []models.Product{}, Page: q.Page, Limit: q.Limit}, nil
	}}
	r := setupCatalogRouter(svc)

	w := doRequest(r, http.MethodGet, "/products?perPage=1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, got.Limit)
}

func TestGetProduct(t *testing.T) {
	svc := &mockCatalogService{getFn: func(_ context.Context, id int64) (*models.Product, *services.ServiceError) {
		if id == 1 {
			return &models.Product{ID: 1, Name: "Aceite de lavanda"}, nil
		}
		return nil, notFoundErr
	}}
	r := setupCatalogRouter(svc)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/products/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/products/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/products/abc", "").Code)
}

func TestListCategories(t *testing.T) {
	svc := &mockCatalogService{categoriesFn: func(context.Context) ([]string, *services.ServiceError) {
		return []string{"aceites", "incienso"}, nil
	}}
	r := setupCatalogRouter(svc)

	w := doRequest(r, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"categories":["aceites","incienso"]}`, w.Body.String())
}

func TestAdminCreateProduct(t *testing.T) {
	var got *models.ProductInput
	svc := &mockCatalogService{createFn: func(_ context.Context, in *models.ProductInput) (*models.Product, *services.ServiceError) {
		got = in
		p := &models.Product{ID: 10}
		in.Apply(p)
		return p, nil
	}}
	r := setupCatalogRouter(svc)

	w := doRequest(r, http.MethodPost, "/admin/products", `{"producto":"Vela","precio":9.99,"proveedor":null,"cantidad":""}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Nil(t, got.Supplier)
	require.NotNil(t, got.QuantityDescription)
	assert.Equal(t, "", *got.QuantityDescription)
}

func TestAdminCreateProduct_MissingName(t *testing.T) {
	r := setupCatalogRouter(&mockCatalogService{})

	w := doRequest(r, http.MethodPost, "/admin/products", `{"precio":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name is required")
}

func TestAdminUpdateAndDelete(t *testing.T) {
	svc := &mockCatalogService{
		updateFn: func(_ context.Context, id int64, in *models.ProductInput) (*models.Product, *services.ServiceError) {
			if id != 1 {
				return nil, notFoundErr
			}
			p := &models.Product{ID: id}
			in.Apply(p)
			return p, nil
		},
		deleteFn: func(_ context.Context, id int64) *services.ServiceError {
			if id != 1 {
				return notFoundErr
			}
			return nil
		},
	}
	r := setupCatalogRouter(svc)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, "/admin/products/1", `{"producto":"X","precio":1}`).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodPut, "/admin/products/2", `{"producto":"X","precio":1}`).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodDelete, "/admin/products/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodDelete, "/admin/products/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodDelete, "/admin/products/0", "").Code)
}

func TestAdminPresignImageUpload(t *testing.T) {
	svc := &mockCatalogService{presignFn: func(_ context.Context, id int64, contentType string) (*models.ImageUpload, *services.ServiceError) {
		assert.Equal(t, int64(1), id)
		assert.Equal(t, "image/png", contentType)
		return &models.ImageUpload{UploadURL: "https://bucket/put", ImageURL: "https://images/products/1/a.png"}, nil
	}}
	r := setupCatalogRouter(svc)

	w := doRequest(r, http.MethodPost, "/admin/products/1/image-upload", `{"content_type":"image/png"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"upload_url":"https://bucket/put"`)

	w = doRequest(r, http.MethodPost, "/admin/products/1/image-upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
