package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

//go:embed schema.sql
var schema string

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store on PostgreSQL. Activity inserts are pushed
// through LISTEN/NOTIFY on the activity_inserts channel.
type Store struct {
	db     *sql.DB
	dsn    string
	logger *zap.Logger
	now    func() time.Time
}

// NewPostgresStore opens the connection pool, checks it and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply postgres schema: %w", err)
	}

	logger.Info("postgres store ready")
	return &Store{
		db:     db,
		dsn:    dsn,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

const shipmentColumns = `
	s.id, s.reference, s.customer_id, s.origin, s.destination, s.status, s.type,
	s.value, s.weight, s.estimated_delivery, s.actual_delivery, s.carrier,
	s.created_at, s.updated_at,
	c.id, c.name, c.email, c.phone, c.company, c.address, c.status, c.created_at, c.updated_at`

const shipmentFrom = `FROM shipments s LEFT JOIN customers c ON c.id = s.customer_id`

// ListShipments returns all shipments newest first joined with their customer.
func (s *Store) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+shipmentColumns+` `+shipmentFrom+` ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer rows.Close()

	var out []models.Shipment
	for rows.Next() {
		row, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InsertShipment stores a new shipment and returns it joined with its customer.
func (s *Store) InsertShipment(ctx context.Context, in models.ShipmentInput) (models.Shipment, error) {
	row := in.NewShipment(uuid.NewString(), s.now())
	if err := row.Validate(); err != nil {
		return models.Shipment{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shipments (id, reference, customer_id, origin, destination, status, type,
			value, weight, estimated_delivery, actual_delivery, carrier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		row.ID, row.Reference, nullString(row.CustomerID), row.Origin, row.Destination,
		string(row.Status), string(row.Type), row.Value, row.Weight,
		row.EstimatedDelivery, row.ActualDelivery, nullString(row.Carrier),
		row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return models.Shipment{}, translate("insert shipment", err)
	}
	return s.FindShipment(ctx, row.ID)
}

// UpdateShipment applies a partial update and returns the joined row.
func (s *Store) UpdateShipment(ctx context.Context, id string, patch models.ShipmentPatch) (models.Shipment, error) {
	if err := patch.Validate(); err != nil {
		return models.Shipment{}, err
	}

	var set assignments
	if patch.Reference != nil {
		set.add("reference", *patch.Reference)
	}
	if patch.CustomerID != nil {
		set.add("customer_id", nullString(*patch.CustomerID))
	}
	if patch.Origin != nil {
		set.add("origin", *patch.Origin)
	}
	if patch.Destination != nil {
		set.add("destination", *patch.Destination)
	}
	if patch.Status != nil {
		set.add("status", string(*patch.Status))
	}
	if patch.Type != nil {
		set.add("type", string(*patch.Type))
	}
	if patch.Value != nil {
		set.add("value", *patch.Value)
	}
	if patch.Weight != nil {
		set.add("weight", *patch.Weight)
	}
	if patch.EstimatedDelivery != nil {
		set.add("estimated_delivery", *patch.EstimatedDelivery)
	}
	if patch.ActualDelivery != nil {
		set.add("actual_delivery", *patch.ActualDelivery)
	}
	if patch.Carrier != nil {
		set.add("carrier", nullString(*patch.Carrier))
	}
	set.add("updated_at", s.now())

	if err := s.update(ctx, "shipments", id, set); err != nil {
		return models.Shipment{}, err
	}
	return s.FindShipment(ctx, id)
}

// DeleteShipment removes a shipment by identity.
func (s *Store) DeleteShipment(ctx context.Context, id string) error {
	return s.delete(ctx, "shipments", id)
}

// FindShipment returns one shipment joined with its customer.
func (s *Store) FindShipment(ctx context.Context, id string) (models.Shipment, error) {
	row, err := scanShipment(s.db.QueryRowContext(ctx, `SELECT `+shipmentColumns+` `+shipmentFrom+` WHERE s.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	return row, err
}

// ListCustomers returns all customers newest first.
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, company, address, status, created_at, updated_at
		FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c nullableCustomer
		if err := rows.Scan(c.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, *c.customer())
	}
	return out, rows.Err()
}

// CustomerTotals groups shipments by owning customer.
func (s *Store) CustomerTotals(ctx context.Context) (map[string]models.CustomerTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, COUNT(*), COALESCE(SUM(value), 0)
		FROM shipments
		WHERE customer_id IS NOT NULL
		GROUP BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customer totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]models.CustomerTotals)
	for rows.Next() {
		var t models.CustomerTotals
		if err := rows.Scan(&t.CustomerID, &t.Shipments, &t.Value); err != nil {
			return nil, fmt.Errorf("failed to scan customer totals: %w", err)
		}
		totals[t.CustomerID] = t
	}
	return totals, rows.Err()
}

// InsertCustomer stores a new customer.
func (s *Store) InsertCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	row := in.NewCustomer(uuid.NewString(), s.now())
	if err := row.Validate(); err != nil {
		return models.Customer{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, company, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.ID, row.Name, row.Email, nullString(row.Phone), nullString(row.Company),
		nullString(row.Address), string(row.Status), row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return models.Customer{}, translate("insert customer", err)
	}
	return row, nil
}

// UpdateCustomer applies a partial update and returns the updated row.
func (s *Store) UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	if err := patch.Validate(); err != nil {
		return models.Customer{}, err
	}

	var set assignments
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Email != nil {
		set.add("email", *patch.Email)
	}
	if patch.Phone != nil {
		set.add("phone", nullString(*patch.Phone))
	}
	if patch.Company != nil {
		set.add("company", nullString(*patch.Company))
	}
	if patch.Address != nil {
		set.add("address", nullString(*patch.Address))
	}
	if patch.Status != nil {
		set.add("status", string(*patch.Status))
	}
	set.add("updated_at", s.now())

	if err := s.update(ctx, "customers", id, set); err != nil {
		return models.Customer{}, err
	}

	var c nullableCustomer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, company, address, status, created_at, updated_at
		FROM customers WHERE id = $1`, id).Scan(c.targets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, fmt.Errorf("customer %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("failed to read customer %s: %w", id, err)
	}
	return *c.customer(), nil
}

// DeleteCustomer removes the customer; the foreign key cascades to its shipments.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return s.delete(ctx, "customers", id)
}

// RecentActivities returns the newest activities joined with shipment and customer.
func (s *Store) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+activityColumns+` `+activityFrom+`
		ORDER BY a.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertActivity appends an activity row. The insert trigger notifies listeners.
func (s *Store) InsertActivity(ctx context.Context, in models.ActivityInput) (models.Activity, error) {
	row := in.NewActivity(uuid.NewString(), s.now())
	if err := row.Validate(); err != nil {
		return models.Activity{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, type, title, description, shipment_id, customer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.ID, string(row.Type), row.Title, nullString(row.Description),
		nullString(row.ShipmentID), nullString(row.CustomerID), row.CreatedAt,
	)
	if err != nil {
		return models.Activity{}, translate("insert activity", err)
	}
	return row, nil
}

// SaveReport stores a daily operations report.
func (s *Store) SaveReport(ctx context.Context, r models.OperationsReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations_reports (report_date, total_shipments, active_shipments, in_customs,
			delayed, delivered, total_value, customers, on_time_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.Date, r.TotalShipments, r.ActiveShipments, r.InCustoms, r.Delayed, r.Delivered,
		r.TotalValue, r.Customers, r.OnTimeRate, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operations report: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, table, id string, set assignments) error {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, set.clause(), len(set.args)+1)
	res, err := s.db.ExecContext(ctx, query, append(set.args, id)...)
	if err != nil {
		return translate("update "+strings.TrimSuffix(table, "s"), err)
	}
	return expectRow(res, table, id)
}

func (s *Store) delete(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return translate("delete "+strings.TrimSuffix(table, "s"), err)
	}
	return expectRow(res, table, id)
}

func expectRow(res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), id, repository.ErrNotFound)
	}
	return nil
}

// assignments accumulates "column = $n" pairs for a partial UPDATE.
type assignments struct {
	columns []string
	args    []any
}

func (a *assignments) add(column string, value any) {
	a.args = append(a.args, value)
	a.columns = append(a.columns, fmt.Sprintf("%s = $%d", column, len(a.args)))
}

func (a assignments) clause() string { return strings.Join(a.columns, ", ") }

// translate maps constraint violations onto models.ErrInvalidRecord.
func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation", "check_violation", "foreign_key_violation", "not_null_violation":
			return fmt.Errorf("%w: %s", models.ErrInvalidRecord, pqErr.Message)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
