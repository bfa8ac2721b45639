package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

type OrderHandler struct {
	store *sandbox.Store
}

func NewOrderHandler(store *sandbox.Store) *OrderHandler {
	return &OrderHandler{store: store}
}

// Place handles POST /orders/.
func (h *OrderHandler) Place(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req domain.PlaceOrder
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Items are required"})
	}

	order, err := h.store.PlaceOrder(caller, req.Items)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// Mine handles GET /orders/.
func (h *OrderHandler) Mine(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.MyOrders(caller))
}

// All handles GET /orders/all.
func (h *OrderHandler) All(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	orders, err := h.store.AllOrders(caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.store.GetOrder(caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Cancel handles PUT /orders/:id/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.store.CancelOrder(caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PUT /orders/:id/status.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req domain.StatusUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}

	res, err := h.store.UpdateOrderStatus(caller, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
