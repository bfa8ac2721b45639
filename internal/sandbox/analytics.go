package sandbox

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/smartretail/storefront/internal/core/domain"
)

const (
	dayLayout        = "2006-01-02"
	forecastModel    = "naive_mean"
	fallbackLookback = 30
)

// Status sets counted by the different reports.
var (
	pipelineStatuses = statusSet(domain.OrderPending, domain.OrderPaid, domain.OrderShipped, domain.OrderDelivered)
	revenueStatuses  = statusSet(domain.OrderPaid, domain.OrderShipped, domain.OrderDelivered)
)

func statusSet(ss ...domain.OrderStatus) map[domain.OrderStatus]bool {
	m := make(map[domain.OrderStatus]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// dateBounds parses an inclusive from/to range. Missing or unparseable bounds
// fall back to the last DefaultReportDays days.
func (s *Store) dateBounds(from, to string) (time.Time, time.Time) {
	today := s.today()
	return parseDay(from, today.AddDate(0, 0, -domain.DefaultReportDays)), parseDay(to, today)
}

func parseDay(v string, def time.Time) time.Time {
	if v == "" {
		return def
	}
	t, err := time.Parse(dayLayout, v)
	if err != nil {
		return def
	}
	return t
}

func inRange(ts *domain.Timestamp, start, end time.Time) bool {
	if ts == nil {
		return false
	}
	day := truncateDay(ts.UTC())
	return !day.Before(start) && !day.After(end)
}

func orderDay(o *domain.Order) string {
	if o.CreatedAt == nil {
		return ""
	}
	return o.CreatedAt.UTC().Format(dayLayout)
}

// SalesSummary aggregates orders still in the fulfilment pipeline per day.
func (s *Store) SalesSummary(from, to string) *domain.SalesSummary {
	start, end := s.dateBounds(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := map[string]*domain.DailySales{}
	for _, o := range s.orders {
		if !pipelineStatuses[o.Status] || !inRange(o.CreatedAt, start, end) {
			continue
		}
		day := orderDay(o)
		d, ok := byDay[day]
		if !ok {
			d = &domain.DailySales{Day: day}
			byDay[day] = d
		}
		d.OrdersCount++
		for _, it := range o.Items {
			d.ItemsCount += it.Quantity
			d.Revenue += float64(it.Quantity) * it.Price
		}
	}

	out := &domain.SalesSummary{
		Range: domain.DateRange{From: start.Format(dayLayout), To: end.Format(dayLayout)},
		Daily: make([]domain.DailySales, 0, len(byDay)),
	}
	for _, d := range byDay {
		out.Daily = append(out.Daily, *d)
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Day < out.Daily[j].Day })
	for _, d := range out.Daily {
		out.Totals.Orders += d.OrdersCount
		out.Totals.Items += d.ItemsCount
		out.Totals.Revenue += d.Revenue
	}
	out.Totals.Revenue = round2(out.Totals.Revenue)
	return out
}

// TopProducts ranks products sold in the last window days by revenue, or by
// quantity when metric is "quantity".
func (s *Store) TopProducts(window, limit int, metric string) *domain.TopProducts {
	since := s.today().AddDate(0, 0, -window)

	s.mu.Lock()
	defer s.mu.Unlock()

	agg := map[int]*domain.TopProduct{}
	for _, o := range s.orders {
		if !revenueStatuses[o.Status] || o.CreatedAt == nil || truncateDay(o.CreatedAt.UTC()).Before(since) {
			continue
		}
		for _, it := range o.Items {
			p, ok := s.products[it.ProductID]
			if !ok {
				continue
			}
			tp, ok := agg[p.ID]
			if !ok {
				tp = &domain.TopProduct{ProductID: p.ID, ProductName: p.Name}
				agg[p.ID] = tp
			}
			tp.Quantity += it.Quantity
			tp.Revenue += float64(it.Quantity) * it.Price
		}
	}

	top := make([]domain.TopProduct, 0, len(agg))
	for _, tp := range agg {
		top = append(top, *tp)
	}
	sort.Slice(top, func(i, j int) bool {
		a, b := top[i], top[j]
		if metric == "quantity" && a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if metric != "quantity" && a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.ProductID < b.ProductID
	})
	if limit >= 0 && len(top) > limit {
		top = top[:limit]
	}
	for i := range top {
		top[i].Rank = i + 1
		top[i].Revenue = round2(top[i].Revenue)
	}
	return &domain.TopProducts{WindowDays: window, Metric: metric, Top: top}
}

// ConversionFunnel counts orders created in range by their current status.
// Pending orders hold reserved stock and are counted as reserved.
func (s *Store) ConversionFunnel(from, to string) *domain.ConversionFunnel {
	start, end := s.dateBounds(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	var f domain.Funnel
	for _, o := range s.orders {
		if !inRange(o.CreatedAt, start, end) {
			continue
		}
		f.Created++
		switch o.Status {
		case domain.OrderPending:
			f.Reserved++
		case domain.OrderPaid:
			f.Paid++
		case domain.OrderShipped:
			f.Shipped++
		case domain.OrderDelivered:
			f.Delivered++
		case domain.OrderCancelled:
			f.Cancelled++
		}
	}
	return &domain.ConversionFunnel{
		Range:  domain.DateRange{From: start.Format(dayLayout), To: end.Format(dayLayout)},
		Funnel: f,
	}
}

// Forecast returns the stored forecast from today on when one was built,
// otherwise a naive mean of the last 30 days of revenue.
func (s *Store) Forecast(horizon int) *domain.Forecast {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today().Format(dayLayout)
	stored := make([]domain.ForecastPoint, 0, len(s.forecast))
	for day, pt := range s.forecast {
		if day >= today {
			stored = append(stored, pt)
		}
	}
	if len(stored) > 0 {
		sort.Slice(stored, func(i, j int) bool { return stored[i].Day < stored[j].Day })
		if len(stored) > horizon {
			stored = stored[:horizon]
		}
		return &domain.Forecast{Source: "table", Forecast: stored}
	}

	avg := s.meanDailyRevenue(fallbackLookback)
	out := make([]domain.ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		out = append(out, domain.ForecastPoint{
			Day:       s.today().AddDate(0, 0, i).Format(dayLayout),
			Yhat:      avg,
			ModelName: forecastModel,
		})
	}
	return &domain.Forecast{Source: "fallback", Forecast: out}
}

// RebuildForecast stores a naive mean over lookback days for the next
// horizon days, replacing any earlier value for those days.
func (s *Store) RebuildForecast(horizon, lookback int) *domain.ForecastRebuild {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg := s.meanDailyRevenue(lookback)
	for i := 1; i <= horizon; i++ {
		day := s.today().AddDate(0, 0, i).Format(dayLayout)
		s.forecast[day] = domain.ForecastPoint{Day: day, Yhat: avg, ModelName: forecastModel}
	}
	return &domain.ForecastRebuild{
		Message:  "forecast rebuilt",
		Model:    forecastModel,
		Horizon:  horizon,
		Lookback: lookback,
		Yhat:     avg,
	}
}

// meanDailyRevenue averages revenue over the days of the last lookback days
// (excluding today) that had any sales. Expects s.mu to be held.
func (s *Store) meanDailyRevenue(lookback int) float64 {
	end := s.today().AddDate(0, 0, -1)
	start := s.today().AddDate(0, 0, -lookback)

	byDay := map[string]float64{}
	for _, o := range s.orders {
		if !revenueStatuses[o.Status] || !inRange(o.CreatedAt, start, end) {
			continue
		}
		day := orderDay(o)
		byDay[day] += o.Total()
	}
	if len(byDay) == 0 {
		return 0
	}
	var sum float64
	for _, v := range byDay {
		sum += v
	}
	return round2(sum / float64(len(byDay)))
}

// SalesReport groups realised revenue by day, week or month. Unknown groups
// are treated as day.
func (s *Store) SalesReport(group domain.ReportGroup, from, to string) *domain.SalesReport {
	if !group.Valid() {
		group = domain.GroupDay
	}
	start, end := s.dateBounds(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	byPeriod := map[string]*domain.SalesReportRow{}
	for _, o := range s.orders {
		if !revenueStatuses[o.Status] || !inRange(o.CreatedAt, start, end) {
			continue
		}
		period := periodOf(o.CreatedAt.UTC(), group)
		row, ok := byPeriod[period]
		if !ok {
			row = &domain.SalesReportRow{Period: period}
			byPeriod[period] = row
		}
		row.Orders++
		for _, it := range o.Items {
			row.Items += it.Quantity
			row.Revenue += float64(it.Quantity) * it.Price
		}
	}

	out := &domain.SalesReport{
		Range: domain.DateRange{From: start.Format(dayLayout), To: end.Format(dayLayout)},
		Group: string(group),
		Rows:  make([]domain.SalesReportRow, 0, len(byPeriod)),
	}
	for _, row := range byPeriod {
		out.Rows = append(out.Rows, *row)
	}
	sort.Slice(out.Rows, func(i, j int) bool { return out.Rows[i].Period < out.Rows[j].Period })
	for _, row := range out.Rows {
		out.Totals.Orders += row.Orders
		out.Totals.Items += row.Items
		out.Totals.Revenue += row.Revenue
	}
	out.Totals.Revenue = round2(out.Totals.Revenue)
	return out
}

// SalesReportCSV renders SalesReport as CSV and returns it with the
// attachment filename.
func (s *Store) SalesReportCSV(group domain.ReportGroup, from, to string) ([]byte, string, error) {
	report := s.SalesReport(group, from, to)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"period", "orders", "items", "revenue"}); err != nil {
		return nil, "", err
	}
	for _, row := range report.Rows {
		rec := []string{
			row.Period,
			strconv.Itoa(row.Orders),
			strconv.Itoa(row.Items),
			fmt.Sprintf("%.2f", round2(row.Revenue)),
		}
		if err := w.Write(rec); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("sales_%s_%s_%s.csv", report.Group, report.Range.From, report.Range.To)
	return buf.Bytes(), name, nil
}

// StockStatus lists every product with its recent sales, reserved quantity
// and a low-stock flag (stock at or below lowThreshold).
func (s *Store) StockStatus(lowThreshold, window int) *domain.StockStatus {
	since := s.today().AddDate(0, 0, -window)

	s.mu.Lock()
	defer s.mu.Unlock()

	sold := map[int]int{}
	reserved := map[int]int{}
	for _, o := range s.orders {
		if o.CreatedAt == nil || truncateDay(o.CreatedAt.UTC()).Before(since) {
			continue
		}
		for _, it := range o.Items {
			switch {
			case revenueStatuses[o.Status]:
				sold[it.ProductID] += it.Quantity
			case o.Status == domain.OrderPending:
				reserved[it.ProductID] += it.Quantity
			}
		}
	}

	out := &domain.StockStatus{
		LowThreshold: lowThreshold,
		WindowDays:   window,
		Rows:         make([]domain.StockRow, 0, len(s.products)),
	}
	for _, p := range s.products {
		out.InventoryValue += float64(p.Stock) * p.Price
		out.Rows = append(out.Rows, domain.StockRow{
			ProductID:      p.ID,
			Name:           p.Name,
			Stock:          p.Stock,
			Price:          round2(p.Price),
			SoldLastWindow: sold[p.ID],
			Reserved:       reserved[p.ID],
			LowStock:       p.Stock <= lowThreshold,
		})
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		if out.Rows[i].Name != out.Rows[j].Name {
			return out.Rows[i].Name < out.Rows[j].Name
		}
		return out.Rows[i].ProductID < out.Rows[j].ProductID
	})
	out.InventoryValue = round2(out.InventoryValue)
	return out
}

// periodOf labels t by group: 2006-01-02, 2006-01 or 2006-W05, where weeks
// start on Monday and days before the first Monday fall in week 00.
func periodOf(t time.Time, group domain.ReportGroup) string {
	switch group {
	case domain.GroupMonth:
		return t.Format("2006-01")
	case domain.GroupWeek:
		mondayBased := (int(t.Weekday()) + 6) % 7
		week := (t.YearDay() - 1 + 7 - mondayBased) / 7
		return fmt.Sprintf("%d-W%02d", t.Year(), week)
	default:
		return t.Format(dayLayout)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

