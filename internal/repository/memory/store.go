// Package memory provides an in-process Store used for local development and
// tests. It enforces the same row invariants and cascade rules as the
// database-backed stores.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

const subscriberBuffer = 32

var _ repository.Store = (*Store)(nil)

// Store keeps rows in maps and remembers insertion order so listings can be
// returned newest first.
type Store struct {
	mu sync.RWMutex

	shipments     map[string]models.Shipment
	shipmentOrder []string
	customers     map[string]models.Customer
	customerOrder []string
	activities    map[string]models.Activity
	activityOrder []string
	reports       []models.OperationsReport

	subscribers map[*subscription]struct{}
	failure     error

	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the identity source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore builds an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		shipments:   make(map[string]models.Shipment),
		customers:   make(map[string]models.Customer),
		activities:  make(map[string]models.Activity),
		subscribers: make(map[*subscription]struct{}),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailWith makes every subsequent operation return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return s.failure
}

// ListShipments implements repository.ShipmentStore.
func (s *Store) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Shipment, 0, len(s.shipmentOrder))
	for i := len(s.shipmentOrder) - 1; i >= 0; i-- {
		out = append(out, s.joinShipment(s.shipments[s.shipmentOrder[i]]))
	}
	return out, nil
}

// InsertShipment implements repository.ShipmentStore.
func (s *Store) InsertShipment(ctx context.Context, in models.ShipmentInput) (models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Shipment{}, err
	}

	row := in.NewShipment(s.newID(), s.now())
	if err := row.Validate(); err != nil {
		return models.Shipment{}, err
	}
	if err := s.checkReference(row); err != nil {
		return models.Shipment{}, err
	}

	s.shipments[row.ID] = row
	s.shipmentOrder = append(s.shipmentOrder, row.ID)
	return s.joinShipment(row), nil
}

// UpdateShipment implements repository.ShipmentStore.
func (s *Store) UpdateShipment(ctx context.Context, id string, patch models.ShipmentPatch) (models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Shipment{}, err
	}

	current, ok := s.shipments[id]
	if !ok {
		return models.Shipment{}, fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	row := patch.Apply(current, s.now())
	if err := row.Validate(); err != nil {
		return models.Shipment{}, err
	}
	if err := s.checkReference(row); err != nil {
		return models.Shipment{}, err
	}

	s.shipments[id] = row
	return s.joinShipment(row), nil
}

// FindShipment implements repository.ShipmentStore.
func (s *Store) FindShipment(ctx context.Context, id string) (models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return models.Shipment{}, err
	}

	row, ok := s.shipments[id]
	if !ok {
		return models.Shipment{}, fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	return s.joinShipment(row), nil
}

// DeleteShipment implements repository.ShipmentStore.
func (s *Store) DeleteShipment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if _, ok := s.shipments[id]; !ok {
		return fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	s.deleteShipmentLocked(id)
	return nil
}

// ListCustomers implements repository.CustomerStore.
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Customer, 0, len(s.customerOrder))
	for i := len(s.customerOrder) - 1; i >= 0; i-- {
		out = append(out, s.customers[s.customerOrder[i]])
	}
	return out, nil
}

// CustomerTotals implements repository.CustomerStore.
func (s *Store) CustomerTotals(ctx context.Context) (map[string]models.CustomerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	totals := make(map[string]models.CustomerTotals)
	for _, row := range s.shipments {
		if row.CustomerID == "" {
			continue
		}
		t := totals[row.CustomerID]
		t.CustomerID = row.CustomerID
		t.Shipments++
		t.Value += row.Value
		totals[row.CustomerID] = t
	}
	return totals, nil
}

// InsertCustomer implements repository.CustomerStore.
func (s *Store) InsertCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Customer{}, err
	}

	row := in.NewCustomer(s.newID(), s.now())
	if err := row.Validate(); err != nil {
		return models.Customer{}, err
	}
	s.customers[row.ID] = row
	s.customerOrder = append(s.customerOrder, row.ID)
	return row, nil
}

// UpdateCustomer implements repository.CustomerStore.
func (s *Store) UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Customer{}, err
	}

	current, ok := s.customers[id]
	if !ok {
		return models.Customer{}, fmt.Errorf("customer %s: %w", id, repository.ErrNotFound)
	}
	row := patch.Apply(current, s.now())
	if err := row.Validate(); err != nil {
		return models.Customer{}, err
	}
	s.customers[id] = row
	return row, nil
}

// DeleteCustomer implements repository.CustomerStore. Owned shipments go with it.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if _, ok := s.customers[id]; !ok {
		return fmt.Errorf("customer %s: %w", id, repository.ErrNotFound)
	}
	for shipmentID, row := range s.shipments {
		if row.CustomerID == id {
			s.deleteShipmentLocked(shipmentID)
		}
	}
	delete(s.customers, id)
	s.customerOrder = removeID(s.customerOrder, id)
	return nil
}

// RecentActivities implements repository.ActivityStore.
func (s *Store) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Activity, 0, limit)
	for i := len(s.activityOrder) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.joinActivity(s.activities[s.activityOrder[i]]))
	}
	return out, nil
}

// InsertActivity implements repository.ActivityStore and pushes the row to subscribers.
func (s *Store) InsertActivity(ctx context.Context, in models.ActivityInput) (models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return models.Activity{}, err
	}

	row := in.NewActivity(s.newID(), s.now())
	if err := row.Validate(); err != nil {
		return models.Activity{}, err
	}
	s.activities[row.ID] = row
	s.activityOrder = append(s.activityOrder, row.ID)

	for sub := range s.subscribers {
		select {
		case sub.events <- row:
		default:
			// subscriber is not keeping up; the push feed is best effort
		}
	}
	return row, nil
}

// SubscribeActivityInserts implements repository.ActivityStore.
func (s *Store) SubscribeActivityInserts(ctx context.Context) (repository.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	sub := &subscription{store: s, events: make(chan models.Activity, subscriberBuffer)}
	s.subscribers[sub] = struct{}{}
	sub.stop = context.AfterFunc(ctx, func() { _ = sub.Close() })
	return sub, nil
}

// SaveReport implements repository.ReportStore.
func (s *Store) SaveReport(ctx context.Context, report models.OperationsReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.reports = append(s.reports, report)
	return nil
}

// Reports returns the saved reports in insertion order.
func (s *Store) Reports() []models.OperationsReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OperationsReport(nil), s.reports...)
}

// Close drops every subscription.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

func (s *Store) checkReference(row models.Shipment) error {
	for id, other := range s.shipments {
		if id != row.ID && other.Reference == row.Reference {
			return fmt.Errorf("%w: shipment reference %q already exists", models.ErrInvalidRecord, row.Reference)
		}
	}
	return nil
}

func (s *Store) deleteShipmentLocked(id string) {
	delete(s.shipments, id)
	s.shipmentOrder = removeID(s.shipmentOrder, id)
}

func (s *Store) joinShipment(row models.Shipment) models.Shipment {
	if c, ok := s.customers[row.CustomerID]; ok {
		row.Customer = &c
	}
	return row
}

func (s *Store) joinActivity(row models.Activity) models.Activity {
	if sh, ok := s.shipments[row.ShipmentID]; ok {
		row.Shipment = &sh
	}
	if c, ok := s.customers[row.CustomerID]; ok {
		row.Customer = &c
	}
	return row
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

type subscription struct {
	store  *Store
	events chan models.Activity
	stop   func() bool
	once   sync.Once
}

func (s *subscription) Events() <-chan models.Activity { return s.events }

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subscribers, s)
		close(s.events)
		stop := s.stop
		s.store.mu.Unlock()

		if stop != nil {
			stop()
		}
	})
	return nil
}
