package records

import (
	"context"
	"fmt"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

// Customers is the customer collection. Cached rows carry derived totals.
type Customers struct {
	*Collection[models.Customer, models.CustomerInput, models.CustomerPatch]
}

type customerRepo struct {
	store repository.CustomerStore
}

// List merges the per-customer totals from a single aggregation.
func (r customerRepo) List(ctx context.Context) ([]models.Customer, error) {
	rows, err := r.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := r.store.CustomerTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer totals: %w", err)
	}
	for i := range rows {
		rows[i] = rows[i].WithTotals(totals[rows[i].ID])
	}
	return rows, nil
}

func (r customerRepo) Create(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	row, err := r.store.InsertCustomer(ctx, in)
	if err != nil {
		return models.Customer{}, err
	}
	return row.WithTotals(models.CustomerTotals{}), nil
}

func (r customerRepo) Update(ctx context.Context, id string, p models.CustomerPatch) (models.Customer, error) {
	return r.store.UpdateCustomer(ctx, id, p)
}

func (r customerRepo) Delete(ctx context.Context, id string) error {
	return r.store.DeleteCustomer(ctx, id)
}

// NewCustomers mirrors store. Each registration also appends a "New customer
// registered" entry through activities.
func NewCustomers(store repository.CustomerStore, activities repository.ActivityStore, opts Options) *Customers {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("svc.customers")

	c := newCollection[models.Customer, models.CustomerInput, models.CustomerPatch](
		customerRepo{store: store}, messagesFor("customer", "Customer", "customers"), opts)

	c.onCreate = func(ctx context.Context, row models.Customer) {
		recordActivity(ctx, activities, models.CustomerCreatedActivity(row), c.logger)
	}
	c.merge = func(prev, next models.Customer) models.Customer {
		return next.WithTotals(models.CustomerTotals{Shipments: prev.TotalShipments, Value: prev.TotalValue})
	}
	return &Customers{Collection: c}
}

// OnDelete registers fn to run after a customer is deleted.
func (c *Customers) OnDelete(fn func(id string)) {
	c.onDelete = fn
}
