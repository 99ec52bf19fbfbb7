package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

const (
	reportsRange = "Reports!A:I"
	dateLayout   = "2006-01-02"
)

// ReportLog keeps one spreadsheet row per daily operations report:
// date, total, active, customs, delayed, delivered, value, customers, on-time %.
type ReportLog struct {
	repo Repository
}

// NewReportLog wraps repo.
func NewReportLog(repo Repository) *ReportLog {
	return &ReportLog{repo: repo}
}

// Append writes report as a new row.
func (l *ReportLog) Append(ctx context.Context, r models.OperationsReport) error {
	row := []interface{}{
		r.Date.Format(dateLayout),
		r.TotalShipments,
		r.ActiveShipments,
		r.InCustoms,
		r.Delayed,
		r.Delivered,
		r.TotalValue,
		r.Customers,
		r.OnTimeRate,
	}
	return l.repo.WriteRow(ctx, reportsRange, row)
}

// Latest returns the most recent well-formed row dated before day, if any.
func (l *ReportLog) Latest(ctx context.Context, before time.Time) (*models.OperationsReport, error) {
	rows, err := l.repo.ReadRange(ctx, reportsRange)
	if err != nil {
		return nil, fmt.Errorf("load reports range: %w", err)
	}

	cutoff := before.Format(dateLayout)
	for i := len(rows) - 1; i >= 0; i-- {
		r, ok := parseReportRow(rows[i])
		if !ok || r.Date.Format(dateLayout) >= cutoff {
			continue
		}
		return &r, nil
	}
	return nil, nil
}

func parseReportRow(row []interface{}) (models.OperationsReport, bool) {
	if len(row) < 9 {
		return models.OperationsReport{}, false
	}
	date, err := time.Parse(dateLayout, fmt.Sprint(row[0]))
	if err != nil {
		return models.OperationsReport{}, false
	}

	ints := make([]int, 0, 6)
	for _, idx := range []int{1, 2, 3, 4, 5, 7} {
		n, err := strconv.Atoi(fmt.Sprint(row[idx]))
		if err != nil {
			return models.OperationsReport{}, false
		}
		ints = append(ints, n)
	}
	value, err := strconv.ParseFloat(fmt.Sprint(row[6]), 64)
	if err != nil {
		return models.OperationsReport{}, false
	}
	rate, err := strconv.ParseFloat(fmt.Sprint(row[8]), 64)
	if err != nil {
		return models.OperationsReport{}, false
	}

	return models.OperationsReport{
		Date:            date,
		TotalShipments:  ints[0],
		ActiveShipments: ints[1],
		InCustoms:       ints[2],
		Delayed:         ints[3],
		Delivered:       ints[4],
		TotalValue:      value,
		Customers:       ints[5],
		OnTimeRate:      rate,
	}, true
}
