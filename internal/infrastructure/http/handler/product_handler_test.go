package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/catalog-api/internal/app/dto"
	"github.com/mrops-br/catalog-api/internal/app/service"
	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/request"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/response"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// failingRepository fails every call with err
type failingRepository struct {
	err error
}

func (f failingRepository) Save(context.Context, *domain.Product) (*domain.Product, error) {
	return nil, f.err
}

func (f failingRepository) FindAll(context.Context) ([]*domain.Product, error) {
	return nil, f.err
}

func (f failingRepository) FindByID(context.Context, string) (*domain.Product, bool, error) {
	return nil, false, f.err
}

func (f failingRepository) Delete(context.Context, *domain.Product) error {
	return f.err
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	return newRouterWithRepository(t, memory.NewProductRepository(tracer, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func newRouterWithRepository(t *testing.T, repo domain.ProductRepository) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := tracenoop.NewTracerProvider().Tracer("test")

	svc := service.NewProductService(repo, tracer, metricnoop.NewMeterProvider().Meter("test"), logger)
	h := NewProductHandler(svc, request.NewValidator(), logger)

	r := chi.NewRouter()
	r.Route("/products", h.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProduct(t *testing.T, rec *httptest.ResponseRecorder) dto.ProductResponse {
	t.Helper()
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var e response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

const catBody = `{"name":"cat1","maker":"codesoom","price":33000}`

func TestCreateProduct(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/products", catBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	p := decodeProduct(t, rec)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "cat1", p.Name)
	assert.Equal(t, "codesoom", p.Maker)
	assert.Equal(t, int64(33000), p.Price)
	assert.Nil(t, p.ImageURL)
}

func TestCreateProductValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/products", `{"maker":"codesoom","price":-5}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "bad_request", e.Error)
	assert.Equal(t, "required", e.Fields["name"])
	assert.Equal(t, "gte", e.Fields["price"])
}

func TestCreateProductBlankImageURL(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/products",
		`{"name":" cat1 ","maker":"codesoom","price":33000,"imageUrl":""}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	p := decodeProduct(t, rec)
	assert.Equal(t, "cat1", p.Name)
	assert.Nil(t, p.ImageURL)
}

func TestRepositoryFailureIsInternalServerError(t *testing.T) {
	router := newRouterWithRepository(t, failingRepository{err: errors.New("connection refused")})

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/products", catBody},
		{http.MethodGet, "/products", ""},
		{http.MethodGet, "/products/1", ""},
		{http.MethodPut, "/products/1", catBody},
		{http.MethodDelete, "/products/1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, "internal_server_error", e.Error)
			assert.Equal(t, http.StatusText(http.StatusInternalServerError), e.Message)
		})
	}
}

func TestCreateProductMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/products", `{"name":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, decodeError(t, rec).Fields)
}

func TestGetProduct(t *testing.T) {
	router := newTestRouter(t)
	created := decodeProduct(t, do(t, router, http.MethodPost, "/products", catBody))

	rec := do(t, router, http.MethodGet, "/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeProduct(t, rec).ID)

	rec = do(t, router, http.MethodGet, "/products/100", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "not_found", e.Error)
	assert.Equal(t, "product not found", e.Message)
}

func TestListProducts(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(t, router, http.MethodPost, "/products", `{"name":"cat1","maker":"codesoom","price":1}`)
	do(t, router, http.MethodPost, "/products", `{"name":"cat2","maker":"codesoom","price":2}`)

	rec = do(t, router, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dto.ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "cat1", list[0].Name)
	assert.Equal(t, "cat2", list[1].Name)
}

func TestUpdateProduct(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			router := newTestRouter(t)
			created := decodeProduct(t, do(t, router, http.MethodPost, "/products", catBody))

			rec := do(t, router, method, "/products/"+created.ID,
				`{"name":"a","maker":"b","price":100,"imageUrl":"http://example.com/c.png"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			updated := decodeProduct(t, rec)
			assert.Equal(t, created.ID, updated.ID)
			assert.Equal(t, "a", updated.Name)
			assert.Equal(t, "b", updated.Maker)
			assert.Equal(t, int64(100), updated.Price)
			require.NotNil(t, updated.ImageURL)
			assert.Equal(t, "http://example.com/c.png", *updated.ImageURL)

			fetched := decodeProduct(t, do(t, router, http.MethodGet, "/products/"+created.ID, ""))
			assert.Equal(t, "a", fetched.Name)

			rec = do(t, router, method, "/products/100", catBody)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = do(t, router, method, "/products/"+created.ID, `{"name":"a"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeleteProduct(t *testing.T) {
	router := newTestRouter(t)
	created := decodeProduct(t, do(t, router, http.MethodPost, "/products", catBody))

	rec := do(t, router, http.MethodDelete, "/products/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
