package models

import (
	"fmt"
	"time"
)

// ActivityType tags what an activity entry is about.
type ActivityType string

const (
	ActivityShipment   ActivityType = "shipment"
	ActivityCustomer   ActivityType = "customer"
	ActivityDocument   ActivityType = "document"
	ActivityAlert      ActivityType = "alert"
	ActivityCompletion ActivityType = "completion"
)

// Valid reports whether the type belongs to the closed set.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityShipment, ActivityCustomer, ActivityDocument, ActivityAlert, ActivityCompletion:
		return true
	}
	return false
}

// Activity is an append-only feed entry, optionally joined with the shipment or
// customer it refers to.
type Activity struct {
	ID          string       `json:"id" bson:"_id"`
	Type        ActivityType `json:"type" bson:"type"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	ShipmentID  string       `json:"shipment_id,omitempty" bson:"shipment_id,omitempty"`
	CustomerID  string       `json:"customer_id,omitempty" bson:"customer_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`

	Shipment *Shipment `json:"shipment,omitempty" bson:"-"`
	Customer *Customer `json:"customer,omitempty" bson:"-"`
}

// Key returns the activity identity.
func (a Activity) Key() string { return a.ID }

// Validate checks the row invariants enforced by every store.
func (a Activity) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidRecord, a.Type)
	}
	if a.Title == "" {
		return fmt.Errorf("%w: activity title is required", ErrInvalidRecord)
	}
	return nil
}

// ActivityInput is the insert shape for an activity.
type ActivityInput struct {
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	ShipmentID  string       `json:"shipment_id,omitempty"`
	CustomerID  string       `json:"customer_id,omitempty"`
}

// NewActivity materializes the row a store persists for this input.
func (in ActivityInput) NewActivity(id string, now time.Time) Activity {
	return Activity{
		ID:          id,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		ShipmentID:  in.ShipmentID,
		CustomerID:  in.CustomerID,
		CreatedAt:   now,
	}
}

// ShipmentCreatedActivity describes the creation of s for the activity feed.
func ShipmentCreatedActivity(s Shipment) ActivityInput {
	return ActivityInput{
		Type:        ActivityShipment,
		Title:       "New shipment created",
		Description: fmt.Sprintf("%s from %s to %s", s.Reference, s.Origin, s.Destination),
		ShipmentID:  s.ID,
	}
}

// CustomerCreatedActivity describes the registration of c for the activity feed.
func CustomerCreatedActivity(c Customer) ActivityInput {
	description := fmt.Sprintf("%s completed registration", c.Name)
	if c.Company != "" {
		description = fmt.Sprintf("%s from %s completed registration", c.Name, c.Company)
	}
	return ActivityInput{
		Type:        ActivityCustomer,
		Title:       "New customer registered",
		Description: description,
		CustomerID:  c.ID,
	}
}
