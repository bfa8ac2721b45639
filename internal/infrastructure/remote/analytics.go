package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/infrastructure/apiclient"
)

// Defaults applied when a caller passes zero.
const (
	DefaultWindowDays   = 30
	DefaultTopLimit     = 10
	DefaultMetric       = "revenue"
	DefaultHorizon      = 14
	DefaultLookback     = 30
	DefaultLowThreshold = 5
)

type AnalyticsClient struct {
	base
}

var _ ports.SalesReportSource = (*AnalyticsClient)(nil)

func NewAnalyticsClient(api Doer, baseURL string, pub ports.RefreshPublisher) *AnalyticsClient {
	return &AnalyticsClient{base: newBase(api, baseURL, "analytics", pub)}
}

// SalesSummary returns daily totals; empty from/to let the service default to
// the last 30 days.
func (c *AnalyticsClient) SalesSummary(ctx context.Context, from, to string) (*domain.SalesSummary, error) {
	var res domain.SalesSummary
	if err := c.get(ctx, "/analytics/sales-summary", rangeQuery(from, to), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// TopProducts ranks products by metric ("revenue" or "quantity").
func (c *AnalyticsClient) TopProducts(ctx context.Context, window, limit int, metric string) (*domain.TopProducts, error) {
	window = orDefault(window, DefaultWindowDays)
	limit = orDefault(limit, DefaultTopLimit)
	if metric == "" {
		metric = DefaultMetric
	}
	if metric != "revenue" && metric != "quantity" {
		return nil, c.invalid(http.MethodGet, "/analytics/top-products", fmt.Errorf("metric must be revenue or quantity, got %q", metric))
	}

	q := url.Values{}
	q.Set("window", strconv.Itoa(window))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("metric", metric)

	var res domain.TopProducts
	if err := c.get(ctx, "/analytics/top-products", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AnalyticsClient) ConversionFunnel(ctx context.Context, from, to string) (*domain.ConversionFunnel, error) {
	var res domain.ConversionFunnel
	if err := c.get(ctx, "/analytics/conversion-funnel", rangeQuery(from, to), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AnalyticsClient) Forecast(ctx context.Context, horizon int) (*domain.Forecast, error) {
	q := url.Values{}
	q.Set("horizon", strconv.Itoa(orDefault(horizon, DefaultHorizon)))

	var res domain.Forecast
	if err := c.get(ctx, "/analytics/forecast", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AnalyticsClient) RebuildForecast(ctx context.Context, horizon, lookback int) (*domain.ForecastRebuild, error) {
	q := url.Values{}
	q.Set("horizon", strconv.Itoa(orDefault(horizon, DefaultHorizon)))
	q.Set("lookback", strconv.Itoa(orDefault(lookback, DefaultLookback)))

	var res domain.ForecastRebuild
	if err := c.send(ctx, http.MethodPost, "/analytics/forecast/rebuild", q, nil, &res); err != nil {
		return nil, err
	}
	c.invalidate(domain.ResourceAnalytics, domain.ActionRebuild, 0)
	return &res, nil
}

func (c *AnalyticsClient) SalesReport(ctx context.Context, group domain.ReportGroup, from, to string) (*domain.SalesReport, error) {
	q, err := c.reportQuery("/analytics/reports/sales", group, from, to)
	if err != nil {
		return nil, err
	}
	var res domain.SalesReport
	if err := c.get(ctx, "/analytics/reports/sales", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AnalyticsClient) StockStatus(ctx context.Context, lowThreshold, window int) (*domain.StockStatus, error) {
	q := url.Values{}
	q.Set("low_threshold", strconv.Itoa(orDefault(lowThreshold, DefaultLowThreshold)))
	q.Set("window", strconv.Itoa(orDefault(window, DefaultWindowDays)))

	var res domain.StockStatus
	if err := c.get(ctx, "/analytics/stock/status", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SalesReportCSVURL builds the direct download link for the CSV export
// without fetching it. An empty group means "day".
func (c *AnalyticsClient) SalesReportCSVURL(group domain.ReportGroup, from, to string) string {
	if group == "" {
		group = domain.GroupDay
	}
	q := rangeQuery(from, to)
	q.Set("group", string(group))
	return c.endpoint("/analytics/reports/sales.csv", q)
}

// DownloadSalesReportCSV fetches the CSV export with the stored credential.
func (c *AnalyticsClient) DownloadSalesReportCSV(ctx context.Context, group domain.ReportGroup, from, to string) ([]byte, error) {
	const path = "/analytics/reports/sales.csv"
	q, err := c.reportQuery(path, group, from, to)
	if err != nil {
		return nil, err
	}
	data, _, err := c.api.Download(ctx, apiclient.Request{
		Service: c.service,
		Method:  http.MethodGet,
		URL:     c.endpoint(path, q),
	})
	return data, err
}

func (c *AnalyticsClient) reportQuery(path string, group domain.ReportGroup, from, to string) (url.Values, error) {
	if group == "" {
		group = domain.GroupDay
	}
	if !group.Valid() {
		return nil, c.invalid(http.MethodGet, path, fmt.Errorf("group must be day, week or month, got %q", group))
	}
	q := rangeQuery(from, to)
	q.Set("group", string(group))
	return q, nil
}

func rangeQuery(from, to string) url.Values {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return q
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
