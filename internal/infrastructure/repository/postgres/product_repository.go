package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mrops-br/catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	upsertProduct = `INSERT INTO products (id, name, maker, price, image_url, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	maker = EXCLUDED.maker,
	price = EXCLUDED.price,
	image_url = EXCLUDED.image_url,
	updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at`

	selectProduct = `SELECT id::text, name, maker, price, image_url, created_at, updated_at
FROM products WHERE id = $1::uuid`

	selectProducts = `SELECT id::text, name, maker, price, image_url, created_at, updated_at
FROM products ORDER BY created_at, id`

	deleteProduct = `DELETE FROM products WHERE id = $1::uuid`
)

// ProductRepository stores products in PostgreSQL.
type ProductRepository struct {
	db     DB
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

// NewProductRepository creates a PostgreSQL-backed product repository
func NewProductRepository(db DB, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

// Save inserts the product or overwrites the row with the same ID
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	stored := product.Clone()
	if stored.IsNew() {
		stored.ID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("product.id", stored.ID),
		attribute.String("product.name", stored.Name),
	)

	err := r.db.QueryRow(ctx, upsertProduct,
		stored.ID, stored.Name, stored.Maker, stored.Price, stored.ImageURL, r.now().UTC(),
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
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

// FindByID retrieves a product by ID. IDs that are not UUIDs are never stored.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if _, err := uuid.Parse(id); err != nil {
		span.SetAttributes(attribute.Bool("product.found", false))
		return nil, false, nil
	}

	product, err := scanProduct(r.db.QueryRow(ctx, selectProduct, id))
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("product.found", false))
		r.logger.DebugContext(ctx, "Product not found in repository",
			slog.String("product_id", id),
		)
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load product")
		return nil, false, err
	}

	span.SetAttributes(attribute.Bool("product.found", true))
	span.SetStatus(codes.Ok, "Product found")
	return product, true, nil
}

// FindAll retrieves all products ordered by creation time
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	rows, err := r.db.Query(ctx, selectProducts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list products")
		return nil, err
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to scan product")
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to iterate products")
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// Delete removes the product row
func (r *ProductRepository) Delete(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	tag, err := r.db.Exec(ctx, deleteProduct, product.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		return err
	}

	r.logger.DebugContext(ctx, "Product deleted from repository",
		slog.String("product_id", product.ID),
		slog.Int64("rows", tag.RowsAffected()),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Maker, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
