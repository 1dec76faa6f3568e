package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/storefront/order-service/internal/catalog"
	"github.com/storefront/order-service/internal/customer"
)

// maxReserveAttempts bounds how often the whole validate+reserve sequence
// is retried after losing a stock race to a concurrent order.
const maxReserveAttempts = 3

// CatalogStore is the slice of the catalog the orchestration needs:
// one batch snapshot read, one atomic conditional batch decrement, and
// the inverse increment for compensation.
type CatalogStore interface {
	FindAllByID(ctx context.Context, ids []string) ([]catalog.Product, error)
	ApplyStockAdjustments(ctx context.Context, adjustments []catalog.StockAdjustment) error
	ReleaseStock(ctx context.Context, adjustments []catalog.StockAdjustment) error
}

// EventPublisher emits the OrderCreated event after a successful
// creation. Publishing is best-effort; a failure never fails the order.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}

// Service orchestrates order creation across the customer, catalog and
// order stores. It holds no state of its own; all shared state lives in
// the stores, which are responsible for their own atomicity.
type Service struct {
	customers customer.Repository
	catalog   CatalogStore
	orders    Repository
	events    EventPublisher
	logger    zerolog.Logger
}

func NewService(customers customer.Repository, cat CatalogStore, orders Repository, events EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		customers: customers,
		catalog:   cat,
		orders:    orders,
		events:    events,
		logger:    logger,
	}
}

// CreateOrder validates the request, prices every line from the catalog
// snapshot, reserves stock atomically and persists the order. On any
// validation failure nothing is written. Persisted line order matches
// the request order, including duplicate product ids as separate lines.
func (s *Service) CreateOrder(ctx context.Context, customerID string, items []LineRequest) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrInvalidQuantity)
		}
	}

	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if cust == nil {
		return nil, ErrCustomerNotFound
	}

	var lastConflict *catalog.StockConflictError
	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		o, adjustments, err := s.buildOrder(ctx, customerID, items)
		if err != nil {
			return nil, err
		}

		err = s.catalog.ApplyStockAdjustments(ctx, adjustments)
		var conflict *catalog.StockConflictError
		if errors.As(err, &conflict) {
			// A concurrent order consumed stock between our snapshot read
			// and the conditional decrement. Re-read and re-validate.
			lastConflict = conflict
			s.logger.Warn().
				Int("attempt", attempt).
				Strs("products", conflict.ProductIDs).
				Msg("stock reservation conflict, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reserve stock: %w", err)
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return nil, s.compensate(ctx, adjustments, err)
		}

		if s.events != nil {
			if pubErr := s.events.PublishOrderCreated(ctx, o); pubErr != nil {
				s.logger.Warn().Err(pubErr).Str("orderId", o.ID).Msg("publish OrderCreated failed")
			}
		}

		return o, nil
	}

	// Retries exhausted: every attempt revalidated successfully against a
	// fresh snapshot but lost the decrement race. Report it the same way
	// as a plain shortfall on the first conflicted product.
	return nil, s.conflictAsInsufficientStock(ctx, lastConflict, items)
}

// GetOrder loads a persisted order. Returns nil when the id is unknown.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders returns all orders for one customer, newest first.
func (s *Service) ListOrders(ctx context.Context, customerID string) ([]Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// buildOrder resolves one catalog snapshot for the distinct requested ids
// and validates every line sequentially against a running stock map, so a
// product appearing in multiple lines is checked against what earlier
// lines of the same request left over. It returns the priced order and
// the per-product decrements to apply, without touching any store state.
func (s *Service) buildOrder(ctx context.Context, customerID string, items []LineRequest) (*Order, []catalog.StockAdjustment, error) {
	distinct := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			distinct = append(distinct, it.ProductID)
		}
	}

	products, err := s.catalog.FindAllByID(ctx, distinct)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch catalog entries: %w", err)
	}

	byID := make(map[string]catalog.Product, len(products))
	remaining := make(map[string]int, len(products))
	for _, p := range products {
		byID[p.ID] = p
		remaining[p.ID] = p.Available
	}

	lines := make([]Line, 0, len(items))
	requested := make(map[string]int, len(distinct))
	total := decimal.Zero
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if it.Quantity > remaining[it.ProductID] {
			return nil, nil, &InsufficientStockError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: remaining[it.ProductID],
			}
		}
		remaining[it.ProductID] -= it.Quantity
		requested[it.ProductID] += it.Quantity

		lines = append(lines, Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	adjustments := make([]catalog.StockAdjustment, 0, len(distinct))
	for _, id := range distinct {
		adjustments = append(adjustments, catalog.StockAdjustment{
			ProductID: id,
			Quantity:  requested[id],
		})
	}

	o := &Order{
		CustomerID:  customerID,
		Lines:       lines,
		TotalAmount: total,
		CreatedAt:   time.Now().UTC(),
	}
	return o, adjustments, nil
}

// compensate releases an already-applied reservation after the order
// insert failed. If the release itself fails the stores are inconsistent;
// that is logged loudly for out-of-band reconciliation and reported to
// the caller, never dropped.
func (s *Service) compensate(ctx context.Context, adjustments []catalog.StockAdjustment, cause error) error {
	if relErr := s.catalog.ReleaseStock(ctx, adjustments); relErr != nil {
		s.logger.Error().
			Err(relErr).
			AnErr("cause", cause).
			Interface("adjustments", adjustments).
			Msg("stock release after failed order persistence also failed; stores are inconsistent")
		return &PersistenceError{Compensated: false, Err: cause}
	}
	s.logger.Warn().Err(cause).Msg("order persistence failed, reservation released")
	return &PersistenceError{Compensated: true, Err: cause}
}

// conflictAsInsufficientStock turns an exhausted reservation conflict
// into the error shape callers already handle, using the freshest
// availability we can get for the first offending product.
func (s *Service) conflictAsInsufficientStock(ctx context.Context, conflict *catalog.StockConflictError, items []LineRequest) error {
	if conflict == nil || len(conflict.ProductIDs) == 0 {
		return fmt.Errorf("reserve stock: retries exhausted")
	}

	productID := conflict.ProductIDs[0]
	requested := 0
	for _, it := range items {
		if it.ProductID == productID {
			requested += it.Quantity
		}
	}

	available := 0
	if products, err := s.catalog.FindAllByID(ctx, []string{productID}); err == nil && len(products) == 1 {
		available = products[0].Available
	}

	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}
