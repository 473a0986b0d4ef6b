package dto

import (
	"strings"
	"time"

	"github.com/mrops-br/catalog-api/internal/domain"
)

// ProductRequest is the body of create and update requests
type ProductRequest struct {
	Name     string  `json:"name" validate:"required"`
	Maker    string  `json:"maker" validate:"required"`
	Price    *int64  `json:"price" validate:"required,gte=0"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

// Normalize trims text fields and treats a blank imageUrl as absent
func (r *ProductRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Maker = strings.TrimSpace(r.Maker)
	if r.ImageURL != nil {
		image := strings.TrimSpace(*r.ImageURL)
		if image == "" {
			r.ImageURL = nil
		} else {
			r.ImageURL = &image
		}
	}
}

// ToDomain converts the request into an unsaved domain Product
func (r *ProductRequest) ToDomain() *domain.Product {
	var price int64
	if r.Price != nil {
		price = *r.Price
	}
	return domain.NewProduct(r.Name, r.Maker, price, r.ImageURL)
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Maker     string    `json:"maker"`
	Price     int64     `json:"price"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Maker:     p.Maker,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
