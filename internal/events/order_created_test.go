package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/order-service/internal/order"
)

func TestBuildOrderCreated(t *testing.T) {
	o := &order.Order{
		ID:         uuid.NewString(),
		CustomerID: uuid.NewString(),
		Lines: []order.Line{
			{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: "p2", Quantity: 2, UnitPrice: decimal.RequireFromString("7.75")},
		},
		TotalAmount: decimal.RequireFromString("25.50"),
		CreatedAt:   time.Now().UTC(),
	}

	ev := BuildOrderCreated(o)

	assert.Equal(t, "OrderCreated", ev.EventType)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, o.CustomerID, ev.CustomerID)
	require.Len(t, ev.Lines, 2)
	assert.Equal(t, "p2", ev.Lines[1].ProductID)
	assert.True(t, ev.TotalAmount.Equal(o.TotalAmount))
	assert.False(t, ev.Timestamp.IsZero())
}

func TestOrderCreatedContractFields(t *testing.T) {
	ev := BuildOrderCreated(&order.Order{
		ID:         "order-1",
		CustomerID: "c1",
		Lines: []order.Line{
			{ProductID: "p1", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		},
		TotalAmount: decimal.RequireFromString("30.00"),
	})

	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(body, &asMap))

	// Consumers depend on these names; a rename is a breaking change.
	for _, field := range []string{"eventType", "orderId", "customerId", "lines", "totalAmount", "timestamp"} {
		assert.Contains(t, asMap, field)
	}

	lines, ok := asMap["lines"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	line, ok := lines[0].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"productId", "quantity", "unitPrice"} {
		assert.Contains(t, line, field)
	}
}
