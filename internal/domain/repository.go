package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// ProductRepository defines the contract for product storage.
//
// Save assigns an ID to new products and overwrites existing ones.
// FindByID reports a missing product through found=false, never through err.
type ProductRepository interface {
	Save(ctx context.Context, product *Product) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	FindByID(ctx context.Context, id string) (product *Product, found bool, err error)
	Delete(ctx context.Context, product *Product) error
}
