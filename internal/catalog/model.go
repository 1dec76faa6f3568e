package catalog

import "github.com/shopspring/decimal"

type Product struct {
	ID        string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available int             `json:"available"`
}

// StockAdjustment is the decrement to apply against one product's
// availability. Adjustments are only ever applied as a batch.
type StockAdjustment struct {
	ProductID string
	Quantity  int
}
