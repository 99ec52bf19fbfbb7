package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
	"github.com/mamadbah2/logidash/pkg/clients/webhook"
)

const dateLayout = "2006-01-02"

// Source provides fresh record listings.
type Source interface {
	Refresh(ctx context.Context) error
	Shipments() []models.Shipment
	Customers() []models.Customer
}

// ReportLog is an optional external copy of the daily reports.
type ReportLog interface {
	Append(ctx context.Context, r models.OperationsReport) error
	Latest(ctx context.Context, before time.Time) (*models.OperationsReport, error)
}

// Service produces the daily operations report.
type Service struct {
	source Source
	store  repository.ReportStore
	log    ReportLog
	poster webhook.Poster
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a reporting service. log and poster may be nil.
func NewService(source Source, store repository.ReportStore, log ReportLog, poster webhook.Poster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source: source,
		store:  store,
		log:    log,
		poster: poster,
		logger: logger.Named("svc.reporting"),
		now:    time.Now,
	}
}

// BuildReport summarizes the listings for the day containing at.
func BuildReport(at time.Time, shipments []models.Shipment, customers []models.Customer) models.OperationsReport {
	m := models.ComputeMetrics(shipments, customers)
	y, mo, d := at.Date()
	return models.OperationsReport{
		Date:            time.Date(y, mo, d, 0, 0, 0, 0, at.Location()),
		TotalShipments:  len(shipments),
		ActiveShipments: m.ActiveShipments,
		InCustoms:       m.InCustoms,
		Delayed:         m.Delayed,
		Delivered:       m.Delivered,
		TotalValue:      math.Round(m.TotalRevenue*100) / 100,
		Customers:       m.Customers,
		OnTimeRate:      m.OnTimeDelivery,
		CreatedAt:       at.UTC(),
	}
}

// GenerateDailyReport refreshes the listings, stores the report and, when
// configured, appends it to the sheet and posts a summary. Only the store write
// is fatal; the sheet and the chat post are best effort.
func (s *Service) GenerateDailyReport(ctx context.Context, at time.Time) (models.OperationsReport, error) {
	if err := s.source.Refresh(ctx); err != nil {
		return models.OperationsReport{}, fmt.Errorf("refresh listings: %w", err)
	}

	report := BuildReport(at, s.source.Shipments(), s.source.Customers())
	if err := s.store.SaveReport(ctx, report); err != nil {
		return models.OperationsReport{}, fmt.Errorf("save report: %w", err)
	}

	var previous *models.OperationsReport
	if s.log != nil {
		prev, err := s.log.Latest(ctx, report.Date)
		if err != nil {
			s.logger.Warn("failed to read previous report", zap.Error(err))
		}
		previous = prev

		if err := s.log.Append(ctx, report); err != nil {
			s.logger.Warn("failed to append report to sheet", zap.Error(err))
		}
	}

	if s.poster != nil {
		if err := s.poster.PostMessage(ctx, Summary(report, previous)); err != nil {
			s.logger.Warn("failed to post report summary", zap.Error(err))
		}
	}

	s.logger.Info("daily report generated",
		zap.String("date", report.Date.Format(dateLayout)),
		zap.Int("shipments", report.TotalShipments),
		zap.Float64("on_time_rate", report.OnTimeRate))
	return report, nil
}

// Summary renders the report as chat text, with day-over-day changes when a
// previous report is known.
func Summary(r models.OperationsReport, previous *models.OperationsReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Operations report %s\n", r.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Shipments: %d (%d active%s)\n", r.TotalShipments, r.ActiveShipments, delta(r.ActiveShipments, previous, func(p models.OperationsReport) int { return p.ActiveShipments }))
	fmt.Fprintf(&b, "In customs: %d, delayed: %d, delivered: %d\n", r.InCustoms, r.Delayed, r.Delivered)
	fmt.Fprintf(&b, "Total value: $%.2f\n", r.TotalValue)
	fmt.Fprintf(&b, "Customers: %d%s\n", r.Customers, delta(r.Customers, previous, func(p models.OperationsReport) int { return p.Customers }))
	fmt.Fprintf(&b, "On-time delivery: %.1f%%", r.OnTimeRate)
	return b.String()
}

func delta(current int, previous *models.OperationsReport, pick func(models.OperationsReport) int) string {
	if previous == nil {
		return ""
	}
	diff := current - pick(*previous)
	if diff == 0 {
		return ", unchanged"
	}
	return fmt.Sprintf(", %+d since %s", diff, previous.Date.Format(dateLayout))
}
