package domain

// LowStockThreshold is the level below which a product is shown as running low.
const LowStockThreshold = 10

// StockLevel classifies a product's stock for display and cart eligibility.
type StockLevel string

const (
	StockOut    StockLevel = "out_of_stock"
	StockLow    StockLevel = "low_stock"
	StockNormal StockLevel = "in_stock"
)

// Product is a catalog entry as returned by the product service.
type Product struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	ImageURL    string     `json:"image_url,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// StockLevel derives the display level from Stock; Stock itself is never
// adjusted on the client.
func (p Product) StockLevel() StockLevel {
	switch {
	case p.Stock <= 0:
		return StockOut
	case p.Stock < LowStockThreshold:
		return StockLow
	default:
		return StockNormal
	}
}

// CanAddToCart reports whether the product can be ordered at all.
func (p Product) CanAddToCart() bool {
	return p.Stock > 0
}

// ProductInput is the writable subset of Product sent on create/update.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// ProductFilter narrows GET /products/.
type ProductFilter struct {
	Name     string
	MinPrice *float64
	MaxPrice *float64
}

// ProductCreated is the acknowledgement of POST /products/.
type ProductCreated struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// StockUpdate is the body of PUT /products/:id/stock. Quantity is a delta
// and may be negative; the service rejects a result below zero.
type StockUpdate struct {
	Quantity int `json:"quantity"`
}

// StockUpdated is the acknowledgement of a stock change.
type StockUpdated struct {
	Message string `json:"message"`
	Stock   int    `json:"stock"`
}
