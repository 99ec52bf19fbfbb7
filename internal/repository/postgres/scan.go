package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

type scanner interface {
	Scan(dest ...any) error
}

// nullableCustomer receives a customer row, possibly produced by a LEFT JOIN.
type nullableCustomer struct {
	id, name, email, phone, company, address, status sql.NullString
	createdAt, updatedAt                             sql.NullTime
}

func (c *nullableCustomer) targets() []any {
	return []any{&c.id, &c.name, &c.email, &c.phone, &c.company, &c.address, &c.status, &c.createdAt, &c.updatedAt}
}

func (c *nullableCustomer) customer() *models.Customer {
	if !c.id.Valid {
		return nil
	}
	return &models.Customer{
		ID:        c.id.String,
		Name:      c.name.String,
		Email:     c.email.String,
		Phone:     c.phone.String,
		Company:   c.company.String,
		Address:   c.address.String,
		Status:    models.CustomerStatus(c.status.String),
		CreatedAt: c.createdAt.Time,
		UpdatedAt: c.updatedAt.Time,
	}
}

func scanShipment(row scanner) (models.Shipment, error) {
	var (
		s                 models.Shipment
		customerID        sql.NullString
		carrier           sql.NullString
		estimated, actual sql.NullTime
		status, direction string
		joined            nullableCustomer
	)
	dest := []any{
		&s.ID, &s.Reference, &customerID, &s.Origin, &s.Destination, &status, &direction,
		&s.Value, &s.Weight, &estimated, &actual, &carrier, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, joined.targets()...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Shipment{}, err
		}
		return models.Shipment{}, fmt.Errorf("failed to scan shipment: %w", err)
	}

	s.CustomerID = customerID.String
	s.Carrier = carrier.String
	s.Status = models.ShipmentStatus(status)
	s.Type = models.Direction(direction)
	s.EstimatedDelivery = timePtr(estimated)
	s.ActualDelivery = timePtr(actual)
	s.Customer = joined.customer()
	return s, nil
}

const activityColumns = `
	a.id, a.type, a.title, a.description, a.shipment_id, a.customer_id, a.created_at,
	s.id, s.reference, s.origin, s.destination, s.status, s.type,
	c.id, c.name, c.email, c.phone, c.company, c.address, c.status, c.created_at, c.updated_at`

const activityFrom = `FROM activities a
	LEFT JOIN shipments s ON s.id = a.shipment_id
	LEFT JOIN customers c ON c.id = a.customer_id`

func scanActivity(row scanner) (models.Activity, error) {
	var (
		a                                         models.Activity
		kind                                      string
		description, shipmentID, customerID       sql.NullString
		sID, sRef, sOrigin, sDest, sStatus, sType sql.NullString
		joined                                    nullableCustomer
	)
	dest := []any{
		&a.ID, &kind, &a.Title, &description, &shipmentID, &customerID, &a.CreatedAt,
		&sID, &sRef, &sOrigin, &sDest, &sStatus, &sType,
	}
	if err := row.Scan(append(dest, joined.targets()...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Activity{}, err
		}
		return models.Activity{}, fmt.Errorf("failed to scan activity: %w", err)
	}

	a.Type = models.ActivityType(kind)
	a.Description = description.String
	a.ShipmentID = shipmentID.String
	a.CustomerID = customerID.String
	if sID.Valid {
		a.Shipment = &models.Shipment{
			ID:          sID.String,
			Reference:   sRef.String,
			Origin:      sOrigin.String,
			Destination: sDest.String,
			Status:      models.ShipmentStatus(sStatus.String),
			Type:        models.Direction(sType.String),
		}
	}
	a.Customer = joined.customer()
	return a, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
