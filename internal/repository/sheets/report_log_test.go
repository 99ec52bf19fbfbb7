package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

type fakeSheet struct {
	rows [][]interface{}
	err  error
}

func (f *fakeSheet) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, values)
	return nil
}

func (f *fakeSheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.rows, f.err
}

func TestReportLogAppendAndLatest(t *testing.T) {
	ctx := context.Background()
	sheet := &fakeSheet{rows: [][]interface{}{
		{"Date", "Total", "Active", "Customs", "Delayed", "Delivered", "Value", "Customers", "On time"},
	}}
	log := NewReportLog(sheet)

	day := func(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, log.Append(ctx, models.OperationsReport{Date: day(1), TotalShipments: 5, ActiveShipments: 3, TotalValue: 1200.5, Customers: 2, OnTimeRate: 50}))
	require.NoError(t, log.Append(ctx, models.OperationsReport{Date: day(2), TotalShipments: 6, ActiveShipments: 4, Customers: 2}))

	prev, err := log.Latest(ctx, day(2))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, day(1), prev.Date)
	assert.Equal(t, 5, prev.TotalShipments)
	assert.InDelta(t, 1200.5, prev.TotalValue, 0.001)

	none, err := log.Latest(ctx, day(1))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestReportLogReadError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := NewReportLog(&fakeSheet{err: boom}).Latest(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
}
