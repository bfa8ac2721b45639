package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
)

type OrderClient struct {
	base
}

func NewOrderClient(api Doer, baseURL string, pub ports.RefreshPublisher) *OrderClient {
	return &OrderClient{base: newBase(api, baseURL, "orders", pub)}
}

// Mine lists the caller's own orders.
func (c *OrderClient) Mine(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.get(ctx, "/orders/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// All lists every order; the service restricts it to admins.
func (c *OrderClient) All(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.get(ctx, "/orders/all", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *OrderClient) Get(ctx context.Context, id int) (*domain.Order, error) {
	var o domain.Order
	if err := c.get(ctx, fmt.Sprintf("/orders/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Place submits a new order. Stock is decremented by the service, so product
// views are invalidated too.
func (c *OrderClient) Place(ctx context.Context, items []domain.LineItem) (*domain.Order, error) {
	body := domain.PlaceOrder{Items: items}
	if err := c.check(http.MethodPost, "/orders/", body); err != nil {
		return nil, err
	}
	var o domain.Order
	if err := c.send(ctx, http.MethodPost, "/orders/", nil, body, &o); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceOrders, domain.ActionCreate, o.ID)
	c.invalidate(domain.ResourceProducts, domain.ActionUpdate, 0)
	return &o, nil
}

// Cancel asks the service to cancel an order and restore its stock.
func (c *OrderClient) Cancel(ctx context.Context, id int) (*domain.Order, error) {
	var o domain.Order
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/cancel", id), nil, nil, &o); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceOrders, domain.ActionCancel, id)
	c.invalidate(domain.ResourceProducts, domain.ActionUpdate, 0)
	return &o, nil
}

func (c *OrderClient) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus) (*domain.Order, error) {
	path := fmt.Sprintf("/orders/%d/status", id)
	body := domain.StatusUpdate{Status: status}
	if err := c.check(http.MethodPut, path, body); err != nil {
		return nil, err
	}
	var o domain.Order
	if err := c.send(ctx, http.MethodPut, path, nil, body, &o); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceOrders, domain.ActionStatus, id)
	return &o, nil
}
