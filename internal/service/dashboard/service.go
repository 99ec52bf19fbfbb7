package dashboard

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/service/activity"
	"github.com/mamadbah2/logidash/internal/service/records"
	"github.com/mamadbah2/logidash/internal/service/view"
)

// Service composes the record collections and the activity feed into the
// dashboard view.
type Service struct {
	shipments *records.Shipments
	customers *records.Customers
	feed      *activity.Feed
	logger    *zap.Logger
}

// NewService wires a dashboard over already constructed collections.
func NewService(shipments *records.Shipments, customers *records.Customers, feed *activity.Feed, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{shipments: shipments, customers: customers, feed: feed, logger: logger.Named("svc.dashboard")}
}

// Refresh reloads both collections concurrently. One failing load does not
// cancel the other; the first error is returned.
func (s *Service) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.shipments.List(ctx) })
	g.Go(func() error { return s.customers.List(ctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Debug("dashboard refreshed")
	return nil
}

// View builds the dashboard view model from the caches.
func (s *Service) View() view.Dashboard {
	var activities []models.Activity
	if s.feed != nil {
		activities = s.feed.Snapshot()
	}
	loading := s.shipments.Loading() || s.customers.Loading()
	return view.BuildDashboard(s.shipments.Snapshot(), s.customers.Snapshot(), activities, loading)
}

// Shipments returns the cached shipments.
func (s *Service) Shipments() []models.Shipment { return s.shipments.Snapshot() }

// Customers returns the cached customers.
func (s *Service) Customers() []models.Customer { return s.customers.Snapshot() }
