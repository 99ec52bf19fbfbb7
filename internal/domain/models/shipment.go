package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord marks rows that break the persisted record invariants.
var ErrInvalidRecord = errors.New("invalid record")

// ShipmentStatus enumerates the lifecycle states of a shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusInTransit ShipmentStatus = "in-transit"
	StatusCustoms   ShipmentStatus = "customs"
	StatusDelivered ShipmentStatus = "delivered"
	StatusDelayed   ShipmentStatus = "delayed"
)

// ShipmentStatuses lists every status in lifecycle order.
var ShipmentStatuses = []ShipmentStatus{StatusPending, StatusInTransit, StatusCustoms, StatusDelivered, StatusDelayed}

// shipmentTransitions is the guarded lifecycle. It is only consulted when strict
// lifecycle enforcement is switched on.
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusPending:   {StatusInTransit, StatusDelayed},
	StatusInTransit: {StatusCustoms, StatusDelivered, StatusDelayed},
	StatusCustoms:   {StatusInTransit, StatusDelivered, StatusDelayed},
	StatusDelayed:   {StatusInTransit, StatusCustoms, StatusDelivered},
	StatusDelivered: {},
}

// Valid reports whether the status belongs to the closed set.
func (s ShipmentStatus) Valid() bool {
	_, ok := shipmentTransitions[s]
	return ok
}

// Terminal reports whether no further lifecycle movement is expected.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered
}

// CanTransitionTo reports whether next is reachable from s in the guarded lifecycle.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, candidate := range shipmentTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts free text into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	status := ShipmentStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown shipment status %q", ErrInvalidRecord, value)
	}
	return status, nil
}

// Direction tells whether goods are entering or leaving the operator's country.
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// Valid reports whether the direction belongs to the closed set.
func (d Direction) Valid() bool {
	return d == DirectionImport || d == DirectionExport
}

// Shipment is a persisted shipment row, optionally joined with its owning customer.
type Shipment struct {
	ID                string         `json:"id" bson:"_id"`
	Reference         string         `json:"reference" bson:"reference"`
	CustomerID        string         `json:"customer_id,omitempty" bson:"customer_id,omitempty"`
	Origin            string         `json:"origin" bson:"origin"`
	Destination       string         `json:"destination" bson:"destination"`
	Status            ShipmentStatus `json:"status" bson:"status"`
	Type              Direction      `json:"type" bson:"type"`
	Value             float64        `json:"value" bson:"value"`
	Weight            float64        `json:"weight" bson:"weight"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty" bson:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty" bson:"actual_delivery,omitempty"`
	Carrier           string         `json:"carrier,omitempty" bson:"carrier,omitempty"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" bson:"updated_at"`

	Customer *Customer `json:"customer,omitempty" bson:"-"`
}

// Key returns the shipment identity.
func (s Shipment) Key() string { return s.ID }

// Validate checks the row invariants enforced by every store.
func (s Shipment) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown shipment status %q", ErrInvalidRecord, s.Status)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown shipment type %q", ErrInvalidRecord, s.Type)
	}
	if s.Value < 0 {
		return fmt.Errorf("%w: shipment value must not be negative", ErrInvalidRecord)
	}
	if s.Weight < 0 {
		return fmt.Errorf("%w: shipment weight must not be negative", ErrInvalidRecord)
	}
	return nil
}

// ShipmentInput is the insert shape for a new shipment.
type ShipmentInput struct {
	Reference         string         `json:"reference"`
	CustomerID        string         `json:"customer_id,omitempty"`
	Origin            string         `json:"origin"`
	Destination       string         `json:"destination"`
	Status            ShipmentStatus `json:"status,omitempty"`
	Type              Direction      `json:"type,omitempty"`
	Value             float64        `json:"value"`
	Weight            float64        `json:"weight"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"`
	Carrier           string         `json:"carrier,omitempty"`
}

// NewShipment materializes the row a store persists for this input.
func (in ShipmentInput) NewShipment(id string, now time.Time) Shipment {
	s := Shipment{
		ID:                id,
		Reference:         in.Reference,
		CustomerID:        in.CustomerID,
		Origin:            in.Origin,
		Destination:       in.Destination,
		Status:            in.Status,
		Type:              in.Type,
		Value:             in.Value,
		Weight:            in.Weight,
		EstimatedDelivery: in.EstimatedDelivery,
		ActualDelivery:    in.ActualDelivery,
		Carrier:           in.Carrier,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	if s.Type == "" {
		s.Type = DirectionImport
	}
	return s
}

// ShipmentPatch carries a partial update; nil fields are left untouched.
type ShipmentPatch struct {
	Reference         *string         `json:"reference,omitempty"`
	CustomerID        *string         `json:"customer_id,omitempty"`
	Origin            *string         `json:"origin,omitempty"`
	Destination       *string         `json:"destination,omitempty"`
	Status            *ShipmentStatus `json:"status,omitempty"`
	Type              *Direction      `json:"type,omitempty"`
	Value             *float64        `json:"value,omitempty"`
	Weight            *float64        `json:"weight,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actual_delivery,omitempty"`
	Carrier           *string         `json:"carrier,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ShipmentPatch) IsEmpty() bool {
	return p.Reference == nil && p.CustomerID == nil && p.Origin == nil && p.Destination == nil &&
		p.Status == nil && p.Type == nil && p.Value == nil && p.Weight == nil &&
		p.EstimatedDelivery == nil && p.ActualDelivery == nil && p.Carrier == nil
}

// Validate checks the values the patch would write.
func (p ShipmentPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown shipment status %q", ErrInvalidRecord, *p.Status)
	}
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: unknown shipment type %q", ErrInvalidRecord, *p.Type)
	}
	if p.Value != nil && *p.Value < 0 {
		return fmt.Errorf("%w: shipment value must not be negative", ErrInvalidRecord)
	}
	if p.Weight != nil && *p.Weight < 0 {
		return fmt.Errorf("%w: shipment weight must not be negative", ErrInvalidRecord)
	}
	return nil
}

// Apply returns a copy of s with the patch merged in.
func (p ShipmentPatch) Apply(s Shipment, now time.Time) Shipment {
	if p.Reference != nil {
		s.Reference = *p.Reference
	}
	if p.CustomerID != nil {
		s.CustomerID = *p.CustomerID
	}
	if p.Origin != nil {
		s.Origin = *p.Origin
	}
	if p.Destination != nil {
		s.Destination = *p.Destination
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Value != nil {
		s.Value = *p.Value
	}
	if p.Weight != nil {
		s.Weight = *p.Weight
	}
	if p.EstimatedDelivery != nil {
		s.EstimatedDelivery = p.EstimatedDelivery
	}
	if p.ActualDelivery != nil {
		s.ActualDelivery = p.ActualDelivery
	}
	if p.Carrier != nil {
		s.Carrier = *p.Carrier
	}
	s.UpdatedAt = now
	return s
}
