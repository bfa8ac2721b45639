package sandbox

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/smartretail/storefront/internal/core/domain"
)

var errProductNotFound = &Error{Status: http.StatusNotFound, Message: "Product not found"}

// ProductPatch is a partial product update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    *string  `json:"image_url"`
}

// NewProduct is a create request. Pointer fields tell a missing value from
// a zero one.
type NewProduct struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    string   `json:"image_url"`
}

// ListProducts filters by case-insensitive name substring and price bounds.
func (s *Store) ListProducts(f domain.ProductFilter) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(f.Name)
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetProduct(id int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) CreateProduct(caller Caller, in NewProduct) (*domain.ProductCreated, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	switch {
	case in.Name == "":
		return nil, errorf(http.StatusBadRequest, "name is required")
	case in.Price == nil:
		return nil, errorf(http.StatusBadRequest, "price is required")
	case in.Stock == nil:
		return nil, errorf(http.StatusBadRequest, "stock is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.addProduct(in)
	return &domain.ProductCreated{Message: "Product created", ID: p.ID}, nil
}

// BulkCreateProducts adds every product or none.
func (s *Store) BulkCreateProducts(caller Caller, in []NewProduct) (*domain.MessageResult, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	for _, p := range in {
		if p.Name == "" || p.Price == nil || p.Stock == nil {
			return nil, errorf(http.StatusBadRequest, "Each product requires name, price, and stock")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range in {
		s.addProduct(p)
	}
	return &domain.MessageResult{Message: fmt.Sprintf("%d products added successfully", len(in))}, nil
}

func (s *Store) UpdateProduct(caller Caller, id int, patch ProductPatch) (*domain.MessageResult, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	p.UpdatedAt = s.timestamp()

	return &domain.MessageResult{Message: "Product updated"}, nil
}

func (s *Store) DeleteProduct(caller Caller, id int) (*domain.MessageResult, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return nil, errProductNotFound
	}
	delete(s.products, id)
	return &domain.MessageResult{Message: "Product deleted"}, nil
}

// AdjustStock adds delta to the product's stock. A result below zero is
// rejected and leaves the stock untouched.
func (s *Store) AdjustStock(id, delta int) (*domain.StockUpdated, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errProductNotFound
	}
	if p.Stock+delta < 0 {
		return nil, errorf(http.StatusBadRequest, "Stock cannot be negative")
	}
	p.Stock += delta
	p.UpdatedAt = s.timestamp()

	return &domain.StockUpdated{Message: "Stock updated for " + p.Name, Stock: p.Stock}, nil
}

func (s *Store) addProduct(in NewProduct) *domain.Product {
	s.nextProduct++
	p := &domain.Product{
		ID:          s.nextProduct,
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CreatedAt:   s.timestamp(),
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	s.products[p.ID] = p
	return p
}
