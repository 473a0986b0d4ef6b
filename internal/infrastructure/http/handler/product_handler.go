package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/catalog-api/internal/app/dto"
	"github.com/mrops-br/catalog-api/internal/app/service"
	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/request"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/response"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service   *service.ProductService
	validator *request.Validator
	logger    *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, validator *request.Validator, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Routes mounts the product endpoints on r
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateProduct)
	r.Get("/", h.ListProducts)
	r.Get("/{id}", h.GetProduct)
	r.Put("/{id}", h.UpdateProduct)
	r.Patch("/{id}", h.UpdateProduct)
	r.Delete("/{id}", h.DeleteProduct)
}

// decode reads and validates a ProductRequest, writing a 400 on failure
func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request) (*dto.ProductRequest, bool) {
	var req dto.ProductRequest
	err := h.validator.DecodeJSON(r, &req)
	if err == nil {
		return &req, true
	}

	h.logger.WarnContext(r.Context(), "Rejected product request body",
		slog.String("error", err.Error()),
	)

	var verr *request.ValidationError
	if errors.As(err, &verr) {
		response.ValidationError(w, err, verr.Fields)
	} else {
		response.Error(w, http.StatusBadRequest, err)
	}
	return nil, false
}

// writeServiceError maps service errors to HTTP statuses
func (h *ProductHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrInvalidProduct):
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	h.logger.ErrorContext(r.Context(), "Product request failed",
		slog.String("error", err.Error()),
	)
	response.Error(w, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	product, err := h.service.Create(r.Context(), req.ToDomain())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// UpdateProduct handles PUT and PATCH /products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.NoContent(w)
}
