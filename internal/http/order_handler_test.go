package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/order-service/internal/order"
)

type fakeService struct {
	createFunc func(ctx context.Context, customerID string, items []order.LineRequest) (*order.Order, error)
	getFunc    func(ctx context.Context, orderID string) (*order.Order, error)
	listFunc   func(ctx context.Context, customerID string) ([]order.Order, error)
}

func (f *fakeService) CreateOrder(ctx context.Context, customerID string, items []order.LineRequest) (*order.Order, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, customerID, items)
	}
	return nil, nil
}

func (f *fakeService) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, orderID)
	}
	return nil, nil
}

func (f *fakeService) ListOrders(ctx context.Context, customerID string) ([]order.Order, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, customerID)
	}
	return nil, nil
}

func serve(svc OrderService, req *http.Request) *httptest.ResponseRecorder {
	h := NewHandler(svc, zerolog.Nop())
	router := NewRouter(h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder_Created(t *testing.T) {
	svc := &fakeService{
		createFunc: func(ctx context.Context, customerID string, items []order.LineRequest) (*order.Order, error) {
			require.Equal(t, "c1", customerID)
			require.Equal(t, []order.LineRequest{{ProductID: "p1", Quantity: 3}}, items)
			return &order.Order{
				ID:         "order-1",
				CustomerID: customerID,
				Lines: []order.Line{
					{ProductID: "p1", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
				},
				TotalAmount: decimal.RequireFromString("30.00"),
				CreatedAt:   time.Now().UTC(),
			}, nil
		},
	}

	body := `{"customerId":"c1","items":[{"productId":"p1","quantity":3}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	rec := serve(svc, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got order.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "order-1", got.ID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 3, got.Lines[0].Quantity)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	tests := map[string]struct {
		err        error
		wantStatus int
	}{
		"empty order": {
			err:        order.ErrEmptyOrder,
			wantStatus: http.StatusBadRequest,
		},
		"invalid quantity": {
			err:        order.ErrInvalidQuantity,
			wantStatus: http.StatusBadRequest,
		},
		"customer not found": {
			err:        order.ErrCustomerNotFound,
			wantStatus: http.StatusNotFound,
		},
		"product not found": {
			err:        &order.ProductNotFoundError{ProductID: "ghost"},
			wantStatus: http.StatusNotFound,
		},
		"insufficient stock": {
			err:        &order.InsufficientStockError{ProductID: "p1", Requested: 10, Available: 5},
			wantStatus: http.StatusConflict,
		},
		"persistence failure": {
			err:        &order.PersistenceError{Compensated: true, Err: errors.New("insert failed")},
			wantStatus: http.StatusInternalServerError,
		},
		"unknown error": {
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{
				createFunc: func(ctx context.Context, customerID string, items []order.LineRequest) (*order.Order, error) {
					return nil, tt.err
				},
			}

			body := `{"customerId":"c1","items":[{"productId":"p1","quantity":1}]}`
			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
			rec := serve(svc, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCreateOrder_BadRequestBody(t *testing.T) {
	rec := serve(&fakeService{}, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_MissingCustomerID(t *testing.T) {
	body := `{"items":[{"productId":"p1","quantity":1}]}`
	rec := serve(&fakeService{}, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder(t *testing.T) {
	svc := &fakeService{
		getFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			if orderID == "order-1" {
				return &order.Order{ID: orderID, CustomerID: "c1"}, nil
			}
			return nil, nil
		},
	}

	rec := serve(svc, httptest.NewRequest(http.MethodGet, "/api/orders/order-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(svc, httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdersByCustomer(t *testing.T) {
	svc := &fakeService{
		listFunc: func(ctx context.Context, customerID string) ([]order.Order, error) {
			return []order.Order{{ID: "o1", CustomerID: customerID}}, nil
		},
	}

	rec := serve(svc, httptest.NewRequest(http.MethodGet, "/api/customers/c1/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []order.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].CustomerID)
}

func TestHealth(t *testing.T) {
	rec := serve(&fakeService{}, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
