package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/otd-mx/ordenes-api/models"
	"go.uber.org/zap"
)

// OrderStore is the single source of truth for the order log.
// Every call reads the whole workbook; every mutation writes the whole workbook back.
// Mutations are serialized within the process only: two processes sharing a
// workbook still overwrite each other (last writer wins).
type OrderStore struct {
	storage WorkbookStorage
	codec   WorkbookCodec
	metrics *Metrics

	mu sync.Mutex
}

var orderStoreInstance *OrderStore

// NewOrderStore creates a store over storage. metrics may be nil.
func NewOrderStore(storage WorkbookStorage, sheet string, metrics *Metrics) *OrderStore {
	return &OrderStore{
		storage: storage,
		codec:   WorkbookCodec{Sheet: sheet},
		metrics: metrics,
	}
}

// InitOrderStore creates the store and registers it as the global instance
func InitOrderStore(storage WorkbookStorage, sheet string, metrics *Metrics) *OrderStore {
	orderStoreInstance = NewOrderStore(storage, sheet, metrics)
	return orderStoreInstance
}

// GetOrderStore returns the initialized store instance
func GetOrderStore() *OrderStore {
	return orderStoreInstance
}

// SetOrderStore sets the store instance (primarily for testing)
func SetOrderStore(store *OrderStore) {
	orderStoreInstance = store
}

// Storage returns the underlying workbook storage
func (s *OrderStore) Storage() WorkbookStorage {
	return s.storage
}

// Sheet returns the name of the order log sheet
func (s *OrderStore) Sheet() string {
	return s.codec.sheet()
}

// Load reads and normalizes the full order log. A workbook that does not exist yet loads as an empty set.
func (s *OrderStore) Load(ctx context.Context) (set models.OrderSet, err error) {
	defer s.observe("load", time.Now(), &err)

	_, set, err = s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetOrderCount(len(set))
	return set, nil
}

// NextOrderID suggests the identifier for the next order
func (s *OrderStore) NextOrderID(ctx context.Context) (string, error) {
	set, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return NextOrderID(set.IDs()), nil
}

// Insert appends a new order and persists the full log.
// A draft without an id gets the next generated one.
func (s *OrderStore) Insert(ctx context.Context, draft models.NewOrder) (order models.Order, err error) {
	defer s.observe("insert", time.Now(), &err)

	if ve := ValidateNewOrder(draft); ve != nil {
		return models.Order{}, ve
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, set, err := s.snapshot(ctx)
	if err != nil {
		return models.Order{}, err
	}

	orderID := draft.OrderID
	if orderID == "" {
		orderID = NextOrderID(set.IDs())
	} else if _, exists := set.Find(orderID); exists {
		return models.Order{}, &ConflictError{OrderID: orderID}
	}

	order = newOrder(orderID, draft)
	next := appendOrder(set, order)
	if err := s.persist(ctx, "insert", raw, next); err != nil {
		return models.Order{}, err
	}

	zap.L().Info("order created",
		zap.String("order_id", order.OrderID),
		zap.String("requested_by", order.RequestedBy),
		zap.Int("orders", len(next)),
	)
	return order, nil
}

// Update applies changes to the order with orderID and persists the full log.
// Nothing is written when the order does not exist.
func (s *OrderStore) Update(ctx context.Context, orderID string, changes models.OrderChanges) (order models.Order, err error) {
	defer s.observe("update", time.Now(), &err)

	if ve := ValidateOrderChanges(changes); ve != nil {
		return models.Order{}, ve
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, set, err := s.snapshot(ctx)
	if err != nil {
		return models.Order{}, err
	}

	next, order, found := replaceOrder(set, orderID, func(o models.Order) models.Order {
		return applyChanges(o, changes)
	})
	if !found {
		return models.Order{}, &NotFoundError{OrderID: orderID}
	}

	if err := s.persist(ctx, "update", raw, next); err != nil {
		return models.Order{}, err
	}

	zap.L().Info("order updated", zap.String("order_id", orderID), zap.String("status", string(order.Status)))
	return order, nil
}

// Delete removes the order with orderID and persists the remainder.
// Nothing is written when the order does not exist.
func (s *OrderStore) Delete(ctx context.Context, orderID string) (err error) {
	defer s.observe("delete", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, set, err := s.snapshot(ctx)
	if err != nil {
		return err
	}

	next, removed := removeOrder(set, orderID)
	if removed == 0 {
		return &NotFoundError{OrderID: orderID}
	}

	if err := s.persist(ctx, "delete", raw, next); err != nil {
		return err
	}

	zap.L().Info("order deleted", zap.String("order_id", orderID), zap.Int("orders", len(next)))
	return nil
}

// snapshot returns the raw workbook together with its decoded order log
func (s *OrderStore) snapshot(ctx context.Context) ([]byte, models.OrderSet, error) {
	raw, err := s.storage.ReadWorkbook(ctx)
	if errors.Is(err, ErrWorkbookNotFound) {
		return nil, models.OrderSet{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workbook from %s: %w", s.storage.Describe(), err)
	}

	set, err := s.codec.Decode(raw)
	if errors.Is(err, ErrSheetNotFound) {
		return raw, models.OrderSet{}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return raw, set, nil
}

func (s *OrderStore) persist(ctx context.Context, op string, raw []byte, set models.OrderSet) error {
	data, err := s.codec.Encode(raw, set)
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	if err := s.storage.WriteWorkbook(ctx, data); err != nil {
		zap.L().Error("workbook write failed",
			zap.String("operation", op),
			zap.String("storage", s.storage.Describe()),
			zap.Error(err),
		)
		return &PersistenceError{Op: op, Err: err}
	}
	s.metrics.SetOrderCount(len(set))
	return nil
}

func (s *OrderStore) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveStoreOperation(op, *err, time.Since(start))
}

func newOrder(orderID string, draft models.NewOrder) models.Order {
	department, _ := draft.Department.Value()
	priority, _ := draft.Priority.Value()
	workType, _ := draft.WorkType.Value()

	return models.Order{
		OrderID:          orderID,
		DateRequired:     draft.DateRequired,
		RequestedBy:      draft.RequestedBy,
		Department:       department,
		DateDesired:      draft.DateDesired,
		Priority:         priority,
		WorkType:         workType,
		Description:      draft.Description,
		ProjectOrFixture: draft.ProjectOrFixture,
		Status:           models.StatusPending,
		Notes:            draft.Notes,
	}
}

func applyChanges(o models.Order, changes models.OrderChanges) models.Order {
	if changes.Status != nil {
		o.Status = *changes.Status
	}
	if changes.DateCompleted != nil {
		d := *changes.DateCompleted
		o.DateCompleted = &d
	}
	if changes.ClearDateCompleted {
		o.DateCompleted = nil
	}
	if changes.Notes != nil {
		o.Notes = *changes.Notes
	}
	return o
}

// appendOrder returns a new set with o at the end
func appendOrder(set models.OrderSet, o models.Order) models.OrderSet {
	next := make(models.OrderSet, 0, len(set)+1)
	next = append(next, set...)
	return append(next, o)
}

// replaceOrder returns a new set where the first order with orderID is replaced by fn's result
func replaceOrder(set models.OrderSet, orderID string, fn func(models.Order) models.Order) (models.OrderSet, models.Order, bool) {
	next := make(models.OrderSet, len(set))
	copy(next, set)
	for i := range next {
		if next[i].OrderID == orderID {
			next[i] = fn(next[i])
			return next, next[i], true
		}
	}
	return set, models.Order{}, false
}

// removeOrder returns a new set without any order carrying orderID
func removeOrder(set models.OrderSet, orderID string) (models.OrderSet, int) {
	next := make(models.OrderSet, 0, len(set))
	for _, o := range set {
		if o.OrderID != orderID {
			next = append(next, o)
		}
	}
	return next, len(set) - len(next)
}
