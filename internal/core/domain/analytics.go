package domain

// DateRange echoes the inclusive range an analytics query covered.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type DailySales struct {
	Day         string  `json:"day"`
	OrdersCount int     `json:"orders_count"`
	ItemsCount  int     `json:"items_count"`
	Revenue     float64 `json:"revenue"`
}

type SalesTotals struct {
	Orders  int     `json:"orders"`
	Items   int     `json:"items"`
	Revenue float64 `json:"revenue"`
}

// SalesSummary is returned by GET /analytics/sales-summary.
type SalesSummary struct {
	Range  DateRange    `json:"range"`
	Daily  []DailySales `json:"daily"`
	Totals SalesTotals  `json:"totals"`
}

type TopProduct struct {
	Rank        int     `json:"rank"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// TopProducts is returned by GET /analytics/top-products.
type TopProducts struct {
	WindowDays int          `json:"window_days"`
	Metric     string       `json:"metric"`
	Top        []TopProduct `json:"top"`
}

type Funnel struct {
	Created   int `json:"created"`
	Reserved  int `json:"reserved"`
	Paid      int `json:"paid"`
	Shipped   int `json:"shipped"`
	Delivered int `json:"delivered"`
	Cancelled int `json:"cancelled"`
}

// ConversionFunnel is returned by GET /analytics/conversion-funnel.
type ConversionFunnel struct {
	Range  DateRange `json:"range"`
	Funnel Funnel    `json:"funnel"`
}

type ForecastPoint struct {
	Day       string   `json:"day"`
	Yhat      float64  `json:"yhat"`
	YhatLower *float64 `json:"yhat_lower"`
	YhatUpper *float64 `json:"yhat_upper"`
	ModelName string   `json:"model_name"`
}

// Forecast is returned by GET /analytics/forecast. Source is "table" when
// a stored forecast exists and "fallback" otherwise.
type Forecast struct {
	Source   string          `json:"source"`
	Forecast []ForecastPoint `json:"forecast"`
}

// ForecastRebuild is returned by POST /analytics/forecast/rebuild.
type ForecastRebuild struct {
	Message  string  `json:"message"`
	Model    string  `json:"model"`
	Horizon  int     `json:"horizon"`
	Lookback int     `json:"lookback"`
	Yhat     float64 `json:"yhat"`
}

type SalesReportRow struct {
	Period  string  `json:"period"`
	Orders  int     `json:"orders"`
	Items   int     `json:"items"`
	Revenue float64 `json:"revenue"`
}

// SalesReport is returned by GET /analytics/reports/sales.
type SalesReport struct {
	Range  DateRange        `json:"range"`
	Group  string           `json:"group"`
	Rows   []SalesReportRow `json:"rows"`
	Totals SalesTotals      `json:"totals"`
}

type StockRow struct {
	ProductID      int     `json:"product_id"`
	Name           string  `json:"name"`
	Stock          int     `json:"stock"`
	Price          float64 `json:"price"`
	SoldLastWindow int     `json:"sold_last_window"`
	Reserved       int     `json:"reserved"`
	LowStock       bool    `json:"low_stock"`
}

// StockStatus is returned by GET /analytics/stock/status.
type StockStatus struct {
	LowThreshold   int        `json:"low_threshold"`
	WindowDays     int        `json:"window_days"`
	InventoryValue float64    `json:"inventory_value"`
	Rows           []StockRow `json:"rows"`
}

// ReportGroup is the bucket size of a sales report.
type ReportGroup string

const (
	GroupDay   ReportGroup = "day"
	GroupWeek  ReportGroup = "week"
	GroupMonth ReportGroup = "month"
)

// Valid reports whether g is accepted by the analytics service.
func (g ReportGroup) Valid() bool {
	return g == GroupDay || g == GroupWeek || g == GroupMonth
}

// DefaultReportDays is the span the analytics service covers when a range
// bound is omitted.
const DefaultReportDays = 30

// ArchivedReport locates an exported report in object storage.
type ArchivedReport struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}
