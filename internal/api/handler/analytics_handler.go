package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

type AnalyticsHandler struct {
	store *sandbox.Store
}

func NewAnalyticsHandler(store *sandbox.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

type rangeQuery struct {
	From string `query:"from"`
	To   string `query:"to"`
}

type reportQuery struct {
	Group string `query:"group"`
	From  string `query:"from"`
	To    string `query:"to"`
}

type topProductsQuery struct {
	Window int    `query:"window" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0"`
	Metric string `query:"metric" validate:"oneof=revenue quantity"`
}

type forecastQuery struct {
	Horizon  int `query:"horizon" validate:"gte=0,lte=365"`
	Lookback int `query:"lookback" validate:"gte=1"`
}

type stockQuery struct {
	LowThreshold int `query:"low_threshold" validate:"gte=0"`
	Window       int `query:"window" validate:"gte=0"`
}

// SalesSummary handles GET /analytics/sales-summary.
func (h *AnalyticsHandler) SalesSummary(c echo.Context) error {
	var q rangeQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.SalesSummary(q.From, q.To))
}

// TopProducts handles GET /analytics/top-products.
func (h *AnalyticsHandler) TopProducts(c echo.Context) error {
	q := topProductsQuery{Window: 30, Limit: 10, Metric: "revenue"}
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.TopProducts(q.Window, q.Limit, q.Metric))
}

// ConversionFunnel handles GET /analytics/conversion-funnel.
func (h *AnalyticsHandler) ConversionFunnel(c echo.Context) error {
	var q rangeQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.ConversionFunnel(q.From, q.To))
}

// Forecast handles GET /analytics/forecast.
func (h *AnalyticsHandler) Forecast(c echo.Context) error {
	q := forecastQuery{Horizon: 14, Lookback: 30}
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.Forecast(q.Horizon))
}

// RebuildForecast handles POST /analytics/forecast/rebuild.
func (h *AnalyticsHandler) RebuildForecast(c echo.Context) error {
	q := forecastQuery{Horizon: 14, Lookback: 30}
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.RebuildForecast(q.Horizon, q.Lookback))
}

// SalesReport handles GET /analytics/reports/sales.
func (h *AnalyticsHandler) SalesReport(c echo.Context) error {
	var q reportQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.SalesReport(reportGroup(q.Group), q.From, q.To))
}

// SalesReportCSV handles GET /analytics/reports/sales.csv.
func (h *AnalyticsHandler) SalesReportCSV(c echo.Context) error {
	var q reportQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	body, filename, err := h.store.SalesReportCSV(reportGroup(q.Group), q.From, q.To)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", body)
}

// StockStatus handles GET /analytics/stock/status.
func (h *AnalyticsHandler) StockStatus(c echo.Context) error {
	q := stockQuery{LowThreshold: 5, Window: 30}
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.StockStatus(q.LowThreshold, q.Window))
}

func reportGroup(v string) domain.ReportGroup {
	if v == "" {
		return domain.GroupDay
	}
	return domain.ReportGroup(strings.ToLower(v))
}
