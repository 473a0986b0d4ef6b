package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// Products are returned in insertion order.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	order    []string
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
		tracer:   tracer,
		logger:   logger,
		now:      time.Now,
	}
}

// Save stores a copy of the product, assigning an ID when it has none
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	stored := product.Clone()
	now := r.now()

	r.mu.Lock()
	if stored.IsNew() {
		stored.ID = uuid.NewString()
		stored.CreatedAt = now
	} else if existing, ok := r.products[stored.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if _, ok := r.products[stored.ID]; !ok {
		r.order = append(r.order, stored.ID)
	}
	r.products[stored.ID] = stored
	r.mu.Unlock()

	span.SetAttributes(
		attribute.String("product.id", stored.ID),
		attribute.String("product.name", stored.Name),
	)

	r.logger.DebugContext(ctx, "Product saved in repository",
		slog.String("product_id", stored.ID),
		slog.String("product_name", stored.Name),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return stored.Clone(), nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	product, exists := r.products[id]
	r.mu.RUnlock()

	if !exists {
		span.SetAttributes(attribute.Bool("product.found", false))
		r.logger.DebugContext(ctx, "Product not found in repository",
			slog.String("product_id", id),
		)
		return nil, false, nil
	}

	span.SetAttributes(attribute.Bool("product.found", true))
	span.SetStatus(codes.Ok, "Product found")
	return product.Clone(), true, nil
}

// FindAll retrieves all products in insertion order
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.RLock()
	products := make([]*domain.Product, 0, len(r.order))
	for _, id := range r.order {
		products = append(products, r.products[id].Clone())
	}
	r.mu.RUnlock()

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// Delete removes the product. Deleting an unknown product is a no-op.
func (r *ProductRepository) Delete(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	r.mu.Lock()
	if _, ok := r.products[product.ID]; ok {
		delete(r.products, product.ID)
		for i, id := range r.order {
			if id == product.ID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Product deleted from repository",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}
