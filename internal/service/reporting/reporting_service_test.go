package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository/memory"
)

type staticSource struct {
	shipments []models.Shipment
	customers []models.Customer
	err       error
}

func (s staticSource) Refresh(context.Context) error { return s.err }
func (s staticSource) Shipments() []models.Shipment  { return s.shipments }
func (s staticSource) Customers() []models.Customer  { return s.customers }

type memoryLog struct {
	previous *models.OperationsReport
	appended []models.OperationsReport
}

func (l *memoryLog) Append(_ context.Context, r models.OperationsReport) error {
	l.appended = append(l.appended, r)
	return nil
}

func (l *memoryLog) Latest(context.Context, time.Time) (*models.OperationsReport, error) {
	return l.previous, nil
}

type capturePoster struct {
	text string
	err  error
}

func (p *capturePoster) PostMessage(_ context.Context, text string) error {
	p.text = text
	return p.err
}

func source() staticSource {
	return staticSource{
		shipments: []models.Shipment{
			{Reference: "SH-1", Status: models.StatusCustoms, Value: 100.25},
			{Reference: "SH-2", Status: models.StatusDelayed, Value: 50},
			{Reference: "SH-3", Status: models.StatusDelivered, Value: 10},
		},
		customers: []models.Customer{{ID: "c1"}, {ID: "c2"}},
	}
}

func TestGenerateDailyReport(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())
	at := time.Date(2024, 6, 2, 20, 0, 0, 0, time.UTC)

	log := &memoryLog{previous: &models.OperationsReport{Date: at.AddDate(0, 0, -1), ActiveShipments: 1, Customers: 2}}
	poster := &capturePoster{err: errors.New("webhook down")}
	svc := NewService(source(), store, log, poster, nil)

	report, err := svc.GenerateDailyReport(context.Background(), at)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), report.Date)
	assert.Equal(t, 3, report.TotalShipments)
	assert.Equal(t, 2, report.ActiveShipments)
	assert.Equal(t, 1, report.InCustoms)
	assert.Equal(t, 1, report.Delayed)
	assert.Equal(t, 1, report.Delivered)
	assert.InDelta(t, 160.25, report.TotalValue, 0.001)

	assert.Equal(t, []models.OperationsReport{report}, store.Reports())
	assert.Len(t, log.appended, 1)
	assert.Contains(t, poster.text, "Shipments: 3 (2 active, +1 since 2024-06-01)")
	assert.Contains(t, poster.text, "Customers: 2, unchanged")
}

func TestGenerateDailyReportRefreshFailure(t *testing.T) {
	store := memory.NewStore()
	defer store.Close(context.Background())

	src := source()
	src.err = errors.New("store unavailable")
	_, err := NewService(src, store, nil, nil, nil).GenerateDailyReport(context.Background(), time.Now())
	require.Error(t, err)
	assert.Empty(t, store.Reports())
}

func TestSummaryWithoutPrevious(t *testing.T) {
	r := BuildReport(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC), source().shipments, nil)
	text := Summary(r, nil)
	assert.Contains(t, text, "Operations report 2024-06-02")
	assert.Contains(t, text, "Shipments: 3 (2 active)")
	assert.Contains(t, text, "On-time delivery: 0.0%")
}
