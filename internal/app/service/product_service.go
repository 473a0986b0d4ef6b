package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	resultSuccess  = "success"
	resultNotFound = "not_found"
	resultFailure  = "failure"
)

// ProductService handles product use cases.
// Repository errors are returned to the caller unchanged.
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// fail marks the span and counts the failure. It returns err untouched.
func (s *ProductService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.ErrorContext(ctx, "Product operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	s.record(ctx, operation, resultFailure)
	return err
}

// notFound marks the span and counts a lookup miss
func (s *ProductService) notFound(ctx context.Context, span trace.Span, operation, id string) error {
	span.RecordError(domain.ErrProductNotFound)
	span.SetStatus(codes.Error, "Product not found")
	s.logger.WarnContext(ctx, "Product not found",
		slog.String("operation", operation),
		slog.String("product_id", id),
	)
	s.record(ctx, operation, resultNotFound)
	return domain.ErrProductNotFound
}

// Create persists a new product and returns it with its assigned ID.
// A nil product yields domain.ErrInvalidProduct.
func (s *ProductService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if product == nil {
		return nil, s.fail(ctx, span, "create", domain.ErrInvalidProduct)
	}

	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.Int64("product.price", product.Price),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", product.Name),
		slog.Int64("price", product.Price),
	)

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	span.SetAttributes(attribute.String("product.id", created.ID))

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", resultSuccess)

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", created.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return created, nil
}

// Get retrieves a product by ID
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Get")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "read", err)
	}
	if !found {
		return nil, s.notFound(ctx, span, "read", id)
	}

	s.record(ctx, "read", resultSuccess)

	s.logger.DebugContext(ctx, "Product retrieved successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return product, nil
}

// List retrieves all products in repository order
func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.List")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", resultSuccess)

	s.logger.DebugContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

// Update overwrites the business fields of the stored product with those of
// source. The stored ID is kept; source.ID is ignored.
func (s *ProductService) Update(ctx context.Context, id string, source *domain.Product) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if source == nil {
		return nil, s.fail(ctx, span, "update", domain.ErrInvalidProduct)
	}

	product, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}
	if !found {
		return nil, s.notFound(ctx, span, "update", id)
	}

	product.Change(source)

	updated, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	s.record(ctx, "update", resultSuccess)

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return updated, nil
}

// Delete removes the product with the given ID
func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.fail(ctx, span, "delete", err)
	}
	if !found {
		return s.notFound(ctx, span, "delete", id)
	}

	if err := s.repo.Delete(ctx, product); err != nil {
		return s.fail(ctx, span, "delete", err)
	}

	s.record(ctx, "delete", resultSuccess)

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}
