package domain

import (
	"time"
)

// Product represents the catalog entity
type Product struct {
	ID        string
	Name      string
	Maker     string
	Price     int64
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct creates a product that has not been persisted yet
func NewProduct(name, maker string, price int64, imageURL *string) *Product {
	return &Product{
		Name:     name,
		Maker:    maker,
		Price:    price,
		ImageURL: imageURL,
	}
}

// IsNew reports whether the product still waits for a repository-assigned ID
func (p *Product) IsNew() bool {
	return p.ID == ""
}

// Change overwrites the business fields with those of source.
// The identifier and timestamps are left untouched.
func (p *Product) Change(source *Product) {
	p.Name = source.Name
	p.Maker = source.Maker
	p.Price = source.Price
	p.ImageURL = cloneString(source.ImageURL)
}

// Clone returns a deep copy of the product
func (p *Product) Clone() *Product {
	c := *p
	c.ImageURL = cloneString(p.ImageURL)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
