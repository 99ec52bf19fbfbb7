package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

// ErrNotFound is returned when an update or delete targets an unknown identity.
var ErrNotFound = errors.New("record not found")

// ShipmentStore is the row-level contract for shipments.
type ShipmentStore interface {
	// ListShipments returns every shipment, newest created first, joined with its customer.
	ListShipments(ctx context.Context) ([]models.Shipment, error)
	// FindShipment returns one shipment joined with its customer, or ErrNotFound.
	FindShipment(ctx context.Context, id string) (models.Shipment, error)
	InsertShipment(ctx context.Context, in models.ShipmentInput) (models.Shipment, error)
	UpdateShipment(ctx context.Context, id string, patch models.ShipmentPatch) (models.Shipment, error)
	DeleteShipment(ctx context.Context, id string) error
}

// CustomerStore is the row-level contract for customers.
type CustomerStore interface {
	// ListCustomers returns every customer, newest created first, without derived totals.
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	// CustomerTotals aggregates shipment count and value per owning customer in one query.
	CustomerTotals(ctx context.Context) (map[string]models.CustomerTotals, error)
	InsertCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error)
	// DeleteCustomer removes the customer and every shipment it owns.
	DeleteCustomer(ctx context.Context, id string) error
}

// ActivityStore is the row-level contract for the activity feed.
type ActivityStore interface {
	// RecentActivities returns at most limit activities, newest first, joined with
	// their shipment and customer.
	RecentActivities(ctx context.Context, limit int) ([]models.Activity, error)
	InsertActivity(ctx context.Context, in models.ActivityInput) (models.Activity, error)
	// SubscribeActivityInserts opens a push feed of newly inserted activities. The
	// subscription ends when ctx is cancelled or Close is called.
	SubscribeActivityInserts(ctx context.Context) (Subscription, error)
}

// ReportStore persists daily operations snapshots.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.OperationsReport) error
}

// Subscription delivers pushed activity inserts until closed.
type Subscription interface {
	Events() <-chan models.Activity
	Close() error
}

// Store bundles every contract a backing engine provides.
type Store interface {
	ShipmentStore
	CustomerStore
	ActivityStore
	ReportStore
	Close(ctx context.Context) error
}
