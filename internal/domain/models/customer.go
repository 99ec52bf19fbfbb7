package models

import (
	"fmt"
	"time"
)

// CustomerStatus enumerates whether a customer is still served.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Valid reports whether the status belongs to the closed set.
func (s CustomerStatus) Valid() bool {
	return s == CustomerActive || s == CustomerInactive
}

// Customer is a persisted customer row. TotalShipments and TotalValue are derived
// from the shipments the customer owns and are never stored.
type Customer struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	Email     string         `json:"email" bson:"email"`
	Phone     string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Company   string         `json:"company,omitempty" bson:"company,omitempty"`
	Address   string         `json:"address,omitempty" bson:"address,omitempty"`
	Status    CustomerStatus `json:"status" bson:"status"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`

	TotalShipments int     `json:"total_shipments" bson:"-"`
	TotalValue     float64 `json:"total_value" bson:"-"`
}

// Key returns the customer identity.
func (c Customer) Key() string { return c.ID }

// Validate checks the row invariants enforced by every store.
func (c Customer) Validate() error {
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown customer status %q", ErrInvalidRecord, c.Status)
	}
	return nil
}

// WithTotals returns a copy of c carrying the derived aggregates.
func (c Customer) WithTotals(t CustomerTotals) Customer {
	c.TotalShipments = t.Shipments
	c.TotalValue = t.Value
	return c
}

// CustomerTotals is the per-customer aggregate over owned shipments.
type CustomerTotals struct {
	CustomerID string  `json:"customer_id" bson:"_id"`
	Shipments  int     `json:"shipments" bson:"shipments"`
	Value      float64 `json:"value" bson:"value"`
}

// CustomerInput is the insert shape for a new customer.
type CustomerInput struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone,omitempty"`
	Company string         `json:"company,omitempty"`
	Address string         `json:"address,omitempty"`
	Status  CustomerStatus `json:"status,omitempty"`
}

// NewCustomer materializes the row a store persists for this input.
func (in CustomerInput) NewCustomer(id string, now time.Time) Customer {
	c := Customer{
		ID:        id,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Address:   in.Address,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Status == "" {
		c.Status = CustomerActive
	}
	return c
}

// CustomerPatch carries a partial update; nil fields are left untouched.
type CustomerPatch struct {
	Name    *string         `json:"name,omitempty"`
	Email   *string         `json:"email,omitempty"`
	Phone   *string         `json:"phone,omitempty"`
	Company *string         `json:"company,omitempty"`
	Address *string         `json:"address,omitempty"`
	Status  *CustomerStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CustomerPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Company == nil && p.Address == nil && p.Status == nil
}

// Validate checks the values the patch would write.
func (p CustomerPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown customer status %q", ErrInvalidRecord, *p.Status)
	}
	return nil
}

// Apply returns a copy of c with the patch merged in.
func (p CustomerPatch) Apply(c Customer, now time.Time) Customer {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	c.UpdatedAt = now
	return c
}
