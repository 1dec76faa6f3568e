package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/order-service/internal/order"
)

// OrderCreated is the published contract for a successfully created
// order. Prices are serialized as decimal strings.
type OrderCreated struct {
	EventType   string          `json:"eventType"`
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	Lines       []OrderLine     `json:"lines"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// BuildOrderCreated maps a persisted order onto the event contract.
func BuildOrderCreated(o *order.Order) OrderCreated {
	ev := OrderCreated{
		EventType:   "OrderCreated",
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, ln := range o.Lines {
		ev.Lines = append(ev.Lines, OrderLine{
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
		})
	}
	return ev
}
