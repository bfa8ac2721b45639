package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
)

type ProductClient struct {
	base
}

func NewProductClient(api Doer, baseURL string, pub ports.RefreshPublisher) *ProductClient {
	return &ProductClient{base: newBase(api, baseURL, "products", pub)}
}

// List returns the catalog. Stock values are passed through as received.
func (c *ProductClient) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}

	var products []domain.Product
	if err := c.get(ctx, "/products/", q, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *ProductClient) Get(ctx context.Context, id int) (*domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *ProductClient) Create(ctx context.Context, in domain.ProductInput) (*domain.ProductCreated, error) {
	if err := c.check(http.MethodPost, "/products/", in); err != nil {
		return nil, err
	}
	var res domain.ProductCreated
	if err := c.send(ctx, http.MethodPost, "/products/", nil, in, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceProducts, domain.ActionCreate, res.ID)
	return &res, nil
}

func (c *ProductClient) Update(ctx context.Context, id int, in domain.ProductInput) (*domain.MessageResult, error) {
	path := fmt.Sprintf("/products/%d", id)
	if err := c.check(http.MethodPut, path, in); err != nil {
		return nil, err
	}
	var res domain.MessageResult
	if err := c.send(ctx, http.MethodPut, path, nil, in, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceProducts, domain.ActionUpdate, id)
	return &res, nil
}

func (c *ProductClient) Delete(ctx context.Context, id int) (*domain.MessageResult, error) {
	var res domain.MessageResult
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceProducts, domain.ActionDelete, id)
	return &res, nil
}

// BulkCreate adds several products in one request. Every entry is validated
// before anything is sent.
func (c *ProductClient) BulkCreate(ctx context.Context, in []domain.ProductInput) (*domain.MessageResult, error) {
	const path = "/products/bulk"
	if len(in) == 0 {
		return nil, c.invalid(http.MethodPost, path, errors.New("at least one product is required"))
	}
	for _, p := range in {
		if err := c.check(http.MethodPost, path, p); err != nil {
			return nil, err
		}
	}
	var res domain.MessageResult
	if err := c.send(ctx, http.MethodPost, path, nil, in, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceProducts, domain.ActionCreate, 0)
	return &res, nil
}

// UpdateStock applies a signed delta to a product's stock.
func (c *ProductClient) UpdateStock(ctx context.Context, id, delta int) (*domain.StockUpdated, error) {
	var res domain.StockUpdated
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/products/%d/stock", id), nil, domain.StockUpdate{Quantity: delta}, &res)
	if err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceProducts, domain.ActionUpdate, id)
	return &res, nil
}
