package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/catalog-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// record is the JSON document stored per product
type record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Maker     string    `json:"maker"`
	Price     int64     `json:"price"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRecord(p *domain.Product) record {
	return record{
		ID:        p.ID,
		Name:      p.Name,
		Maker:     p.Maker,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r record) product() *domain.Product {
	return &domain.Product{
		ID:        r.ID,
		Name:      r.Name,
		Maker:     r.Maker,
		Price:     r.Price,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ProductRepository stores each product as a JSON string and keeps a sorted
// set of IDs scored by creation time for ordered listing.
type ProductRepository struct {
	client goredis.UniversalClient
	prefix string
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

// NewProductRepository creates a Redis-backed product repository
func NewProductRepository(client goredis.UniversalClient, prefix string, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		client: client,
		prefix: prefix,
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

func (r *ProductRepository) productKey(id string) string {
	return fmt.Sprintf("%s:product:%s", r.prefix, id)
}

func (r *ProductRepository) indexKey() string {
	return r.prefix + ":products"
}

// Save writes the product and its index entry in one MULTI/EXEC
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	stored := product.Clone()
	now := r.now().UTC()
	if stored.IsNew() {
		stored.ID = uuid.NewString()
		stored.CreatedAt = now
	} else {
		existing, found, err := r.load(ctx, stored.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to load product")
			return nil, err
		}
		if found {
			stored.CreatedAt = existing.CreatedAt
		} else if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
	}
	stored.UpdatedAt = now

	span.SetAttributes(
		attribute.String("product.id", stored.ID),
		attribute.String("product.name", stored.Name),
	)

	payload, err := json.Marshal(toRecord(stored))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode product")
		return nil, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, r.productKey(stored.ID), payload, 0)
		pipe.ZAddNX(ctx, r.indexKey(), goredis.Z{
			Score:  float64(stored.CreatedAt.UnixNano()),
			Member: stored.ID,
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save product")
		return nil, err
	}

	r.logger.DebugContext(ctx, "Product saved in repository",
		slog.String("product_id", stored.ID),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return stored, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, found, err := r.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load product")
		return nil, false, err
	}

	span.SetAttributes(attribute.Bool("product.found", found))
	if !found {
		r.logger.DebugContext(ctx, "Product not found in repository",
			slog.String("product_id", id),
		)
		return nil, false, nil
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, true, nil
}

func (r *ProductRepository) load(ctx context.Context, id string) (*domain.Product, bool, error) {
	raw, err := r.client.Get(ctx, r.productKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode product %s: %w", id, err)
	}
	return rec.product(), true, nil
}

// FindAll retrieves all products ordered by creation time
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	products := make([]*domain.Product, 0)

	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read product index")
		return nil, err
	}
	if len(ids) == 0 {
		span.SetAttributes(attribute.Int("product.count", 0))
		span.SetStatus(codes.Ok, "Products retrieved successfully")
		return products, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.productKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read products")
		return nil, err
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// index entry without a document; skipped
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			err = fmt.Errorf("decode product %s: %w", ids[i], err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to decode product")
			return nil, err
		}
		products = append(products, rec.product())
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// Delete removes the product and its index entry in one MULTI/EXEC
func (r *ProductRepository) Delete(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.productKey(product.ID))
		pipe.ZRem(ctx, r.indexKey(), product.ID)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		return err
	}

	r.logger.DebugContext(ctx, "Product deleted from repository",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}
