package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

// Shipments is the shipment collection.
type Shipments struct {
	*Collection[models.Shipment, models.ShipmentInput, models.ShipmentPatch]
}

type shipmentRepo struct {
	store repository.ShipmentStore
}

func (r shipmentRepo) List(ctx context.Context) ([]models.Shipment, error) {
	return r.store.ListShipments(ctx)
}

func (r shipmentRepo) Create(ctx context.Context, in models.ShipmentInput) (models.Shipment, error) {
	return r.store.InsertShipment(ctx, in)
}

func (r shipmentRepo) Update(ctx context.Context, id string, p models.ShipmentPatch) (models.Shipment, error) {
	return r.store.UpdateShipment(ctx, id, p)
}

func (r shipmentRepo) Delete(ctx context.Context, id string) error {
	return r.store.DeleteShipment(ctx, id)
}

// NewShipments mirrors store. Each creation also appends a "New shipment
// created" entry through activities.
func NewShipments(store repository.ShipmentStore, activities repository.ActivityStore, opts Options) *Shipments {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("svc.shipments")

	c := newCollection[models.Shipment, models.ShipmentInput, models.ShipmentPatch](
		shipmentRepo{store: store}, messagesFor("shipment", "Shipment", "shipments"), opts)

	c.onCreate = func(ctx context.Context, row models.Shipment) {
		recordActivity(ctx, activities, models.ShipmentCreatedActivity(row), c.logger)
	}
	if opts.StrictLifecycle {
		c.guard = checkTransition
		c.find = store.FindShipment
	}
	return &Shipments{Collection: c}
}

// ForgetCustomer drops cached shipments owned by a deleted customer.
func (s *Shipments) ForgetCustomer(customerID string) int {
	return s.cache.RemoveWhere(func(row models.Shipment) bool { return row.CustomerID == customerID })
}

func checkTransition(current models.Shipment, patch models.ShipmentPatch) error {
	if patch.Status == nil || current.Status.CanTransitionTo(*patch.Status) {
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current.Status, *patch.Status)
}

// recordActivity appends a synthetic activity. A failure is logged and does not
// undo the mutation that triggered it.
func recordActivity(ctx context.Context, store repository.ActivityStore, in models.ActivityInput, logger *zap.Logger) {
	if store == nil {
		return
	}
	if _, err := store.InsertActivity(ctx, in); err != nil {
		logger.Warn("failed to record activity", zap.String("title", in.Title), zap.Error(err))
	}
}
