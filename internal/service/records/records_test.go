package records

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/notify"
	"github.com/mamadbah2/logidash/internal/repository"
	"github.com/mamadbah2/logidash/internal/repository/memory"
	"github.com/mamadbah2/logidash/pkg/events"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return notify.Notification{}
	}
	return r.got[len(r.got)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	publisher *recordingPublisher
	shipments *Shipments
	customers *Customers
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	t.Cleanup(func() { _ = f.store.Close(context.Background()) })

	opts := Options{Notifier: f.notifier, Publisher: f.publisher, StrictLifecycle: strict}
	f.shipments = NewShipments(f.store, f.store, opts)
	f.customers = NewCustomers(f.store, f.store, opts)
	f.customers.OnDelete(func(id string) { f.shipments.ForgetCustomer(id) })
	return f
}

func shipmentInput(ref string, status models.ShipmentStatus) models.ShipmentInput {
	return models.ShipmentInput{Reference: ref, Origin: "Conakry", Destination: "Dakar", Status: status, Value: 100, Weight: 10}
}

func TestShipmentsCreatePrependsAndRecordsActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.shipments.Create(ctx, shipmentInput("SH-1", models.StatusPending))
	require.NoError(t, err)
	second, err := f.shipments.Create(ctx, shipmentInput("SH-2", models.StatusInTransit))
	require.NoError(t, err)

	rows := f.shipments.Snapshot()
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)

	activities, err := f.store.RecentActivities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "New shipment created", activities[0].Title)
	assert.Equal(t, "SH-2 from Conakry to Dakar", activities[0].Description)
	assert.Equal(t, second.ID, activities[0].ShipmentID)

	assert.Equal(t, notify.Success("Shipment created successfully"), f.notifier.last())
	assert.Equal(t, []string{"shipment.created", "shipment.created"}, f.publisher.types())
}

func TestShipmentsCreateFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	_, err := f.shipments.Create(ctx, shipmentInput("SH-1", models.StatusPending))
	require.NoError(t, err)

	boom := errors.New("connection reset")
	f.store.FailWith(boom)

	_, err = f.shipments.Create(ctx, shipmentInput("SH-2", models.StatusPending))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.ErrorIs(t, err, boom)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create", storeErr.Op)

	assert.Len(t, f.shipments.Snapshot(), 1)
	assert.Equal(t, notify.Error("Failed to create shipment"), f.notifier.last())
}

func TestShipmentsListFailureKeepsPreviousCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	_, err := f.store.InsertShipment(ctx, shipmentInput("SH-1", models.StatusPending))
	require.NoError(t, err)

	require.NoError(t, f.shipments.List(ctx))
	require.Len(t, f.shipments.Snapshot(), 1)
	assert.False(t, f.shipments.Loading())

	f.store.FailWith(errors.New("timeout"))
	err = f.shipments.List(ctx)
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.Len(t, f.shipments.Snapshot(), 1)
	assert.False(t, f.shipments.Loading())
	assert.Equal(t, notify.Error("Failed to fetch shipments"), f.notifier.last())
}

func TestShipmentsUpdateReplacesOnlyMatching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	a, err := f.shipments.Create(ctx, shipmentInput("SH-1", models.StatusPending))
	require.NoError(t, err)
	b, err := f.shipments.Create(ctx, shipmentInput("SH-2", models.StatusPending))
	require.NoError(t, err)

	status := models.StatusCustoms
	updated, err := f.shipments.Update(ctx, a.ID, models.ShipmentPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCustoms, updated.Status)

	rows := f.shipments.Snapshot()
	require.Len(t, rows, 2)
	assert.Equal(t, b, rows[0])
	assert.Equal(t, models.StatusCustoms, rows[1].Status)
	assert.Equal(t, notify.Success("Shipment updated successfully"), f.notifier.last())
}

func TestShipmentsDeleteRemovesOnlyMatching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	a, err := f.shipments.Create(ctx, shipmentInput("SH-1", models.StatusPending))
	require.NoError(t, err)
	b, err := f.shipments.Create(ctx, shipmentInput("SH-2", models.StatusPending))
	require.NoError(t, err)

	require.NoError(t, f.shipments.Delete(ctx, a.ID))
	rows := f.shipments.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].ID)

	err = f.shipments.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Len(t, f.shipments.Snapshot(), 1)
	assert.Equal(t, notify.Error("Failed to delete shipment"), f.notifier.last())
}

func TestShipmentsStrictLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	row, err := f.shipments.Create(ctx, shipmentInput("SH-1", models.StatusDelivered))
	require.NoError(t, err)

	pending := models.StatusPending
	_, err = f.shipments.Update(ctx, row.ID, models.ShipmentPatch{Status: &pending})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.NotErrorIs(t, err, ErrStoreFailed)

	cached, ok := f.shipments.Get(row.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusDelivered, cached.Status)
}

func TestShipmentsStrictLifecycleReadsUncachedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	row, err := f.store.InsertShipment(ctx, shipmentInput("SH-1", models.StatusDelivered))
	require.NoError(t, err)

	_, ok := f.shipments.Get(row.ID)
	require.False(t, ok)

	pending := models.StatusPending
	_, err = f.shipments.Update(ctx, row.ID, models.ShipmentPatch{Status: &pending})
	assert.ErrorIs(t, err, ErrIllegalTransition)

	stored, err := f.store.FindShipment(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)

	_, err = f.shipments.Update(ctx, "missing", models.ShipmentPatch{Status: &pending})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, err, ErrStoreFailed)
}

func TestShipmentsUnconstrainedLifecycleByDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	row, err := f.shipments.Create(ctx, shipmentInput("SH-1", models.StatusDelivered))
	require.NoError(t, err)

	pending := models.StatusPending
	updated, err := f.shipments.Update(ctx, row.ID, models.ShipmentPatch{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
}

func TestCustomersCreateHasZeroTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	created, err := f.customers.Create(ctx, models.CustomerInput{Name: "Fatou", Email: "fatou@acme.test", Company: "Acme Co"})
	require.NoError(t, err)

	rows := f.customers.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, created.ID, rows[0].ID)
	assert.Equal(t, "Acme Co", rows[0].Company)
	assert.Zero(t, rows[0].TotalShipments)
	assert.Zero(t, rows[0].TotalValue)

	activities, err := f.store.RecentActivities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Fatou from Acme Co completed registration", activities[0].Description)
	assert.Equal(t, []string{"customer.created"}, f.publisher.types())
}

func TestCustomersListMergesTotalsAndUpdateKeepsThem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	c, err := f.store.InsertCustomer(ctx, models.CustomerInput{Name: "Fatou", Email: "fatou@acme.test"})
	require.NoError(t, err)
	for _, ref := range []string{"SH-1", "SH-2"} {
		in := shipmentInput(ref, models.StatusPending)
		in.CustomerID = c.ID
		_, err := f.store.InsertShipment(ctx, in)
		require.NoError(t, err)
	}

	require.NoError(t, f.customers.List(ctx))
	rows := f.customers.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TotalShipments)
	assert.InDelta(t, 200.0, rows[0].TotalValue, 0.001)

	name := "Fatou Diallo"
	_, err = f.customers.Update(ctx, c.ID, models.CustomerPatch{Name: &name})
	require.NoError(t, err)

	cached, ok := f.customers.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Fatou Diallo", cached.Name)
	assert.Equal(t, 2, cached.TotalShipments)
}

func TestCustomersDeleteForgetsOwnedShipments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	c, err := f.customers.Create(ctx, models.CustomerInput{Name: "Fatou", Email: "fatou@acme.test"})
	require.NoError(t, err)
	in := shipmentInput("SH-1", models.StatusPending)
	in.CustomerID = c.ID
	_, err = f.shipments.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.shipments.Create(ctx, shipmentInput("SH-2", models.StatusPending))
	require.NoError(t, err)

	require.NoError(t, f.customers.Delete(ctx, c.ID))
	assert.Empty(t, f.customers.Snapshot())

	rows := f.shipments.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "SH-2", rows[0].Reference)
}

func TestMirrorRemoveUnknownIsNoop(t *testing.T) {
	var m Mirror[models.Shipment]
	m.Reset([]models.Shipment{{ID: "a"}, {ID: "b"}})

	assert.False(t, m.Remove("zzz"))
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.Replace(models.Shipment{ID: "zzz"}, nil))
	assert.True(t, m.Remove("a"))

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b", snap[0].ID)
}
