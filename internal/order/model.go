package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineRequest is a single requested line as supplied by the caller.
// Quantities and product ids are untrusted; prices are never accepted
// as input.
type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Line is a priced order line. UnitPrice is always the catalog price
// observed at reservation time.
type Line struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID          string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	Lines       []Line          `json:"lines"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}
