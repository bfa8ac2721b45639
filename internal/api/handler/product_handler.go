package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

type ProductHandler struct {
	store *sandbox.Store
}

func NewProductHandler(store *sandbox.Store) *ProductHandler {
	return &ProductHandler{store: store}
}

type productQuery struct {
	Name     string `query:"name"`
	MinPrice string `query:"min_price" validate:"omitempty,numeric"`
	MaxPrice string `query:"max_price" validate:"omitempty,numeric"`
}

type stockRequest struct {
	Quantity int `json:"quantity"`
}

// List handles GET /products/. It needs no authentication.
func (h *ProductHandler) List(c echo.Context) error {
	var q productQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	products := h.store.ListProducts(domain.ProductFilter{
		Name:     q.Name,
		MinPrice: optionalFloat(q.MinPrice),
		MaxPrice: optionalFloat(q.MaxPrice),
	})
	return c.JSON(http.StatusOK, products)
}

func optionalFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.store.GetProduct(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create handles POST /products/.
func (h *ProductHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req sandbox.NewProduct
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.store.CreateProduct(caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// BulkCreate handles POST /products/bulk.
func (h *ProductHandler) BulkCreate(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req []sandbox.NewProduct
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Expected a list of products"})
	}

	res, err := h.store.BulkCreateProducts(caller, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Update handles PUT /products/:id. Absent fields keep their value.
func (h *ProductHandler) Update(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req sandbox.ProductPatch
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.store.UpdateProduct(caller, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /products/:id.
func (h *ProductHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.store.DeleteProduct(caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStock handles PUT /products/:id/stock with a signed quantity delta.
func (h *ProductHandler) UpdateStock(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req stockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.store.AdjustStock(id, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
