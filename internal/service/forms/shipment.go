package forms

import (
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

// DateLayout is the format of date-only form fields.
const DateLayout = "2006-01-02"

// ShipmentForm is the create/edit shipment dialog as entered.
type ShipmentForm struct {
	Reference         string      `json:"reference" label:"Reference" validate:"required"`
	CustomerID        string      `json:"customer_id" label:"Customer" validate:"required"`
	Origin            string      `json:"origin" label:"Origin" validate:"required"`
	Destination       string      `json:"destination" label:"Destination" validate:"required"`
	Type              string      `json:"type" label:"Type" validate:"required,oneof=import export"`
	Status            string      `json:"status" label:"Status" validate:"required,oneof=pending in-transit customs delivered delayed"`
	Value             NumericText `json:"value" label:"Value" validate:"required,numeric,nonneg"`
	Weight            NumericText `json:"weight" label:"Weight" validate:"required,numeric,nonneg"`
	EstimatedDelivery string      `json:"estimated_delivery" label:"Estimated delivery" validate:"required,datetime=2006-01-02"`
	Carrier           string      `json:"carrier" label:"Carrier" validate:"required"`
}

// ShipmentFormFrom prefills the edit dialog from a stored shipment.
func ShipmentFormFrom(s models.Shipment) ShipmentForm {
	f := ShipmentForm{
		Reference:   s.Reference,
		CustomerID:  s.CustomerID,
		Origin:      s.Origin,
		Destination: s.Destination,
		Type:        string(s.Type),
		Status:      string(s.Status),
		Value:       formatFloat(s.Value),
		Weight:      formatFloat(s.Weight),
		Carrier:     s.Carrier,
	}
	if s.EstimatedDelivery != nil {
		f.EstimatedDelivery = s.EstimatedDelivery.Format(DateLayout)
	}
	return f
}

// Input converts a validated form into the insert shape.
func (f ShipmentForm) Input() (models.ShipmentInput, error) {
	value, err := f.Value.Float()
	if err != nil {
		return models.ShipmentInput{}, fmt.Errorf("value: %w", err)
	}
	weight, err := f.Weight.Float()
	if err != nil {
		return models.ShipmentInput{}, fmt.Errorf("weight: %w", err)
	}
	eta, err := parseDate(f.EstimatedDelivery)
	if err != nil {
		return models.ShipmentInput{}, fmt.Errorf("estimated delivery: %w", err)
	}

	return models.ShipmentInput{
		Reference:         strings.TrimSpace(f.Reference),
		CustomerID:        f.CustomerID,
		Origin:            strings.TrimSpace(f.Origin),
		Destination:       strings.TrimSpace(f.Destination),
		Status:            models.ShipmentStatus(f.Status),
		Type:              models.Direction(f.Type),
		Value:             value,
		Weight:            weight,
		EstimatedDelivery: eta,
		Carrier:           strings.TrimSpace(f.Carrier),
	}, nil
}

// Patch converts a validated form into a full-replacement update.
func (f ShipmentForm) Patch() (models.ShipmentPatch, error) {
	in, err := f.Input()
	if err != nil {
		return models.ShipmentPatch{}, err
	}
	return models.ShipmentPatch{
		Reference:         &in.Reference,
		CustomerID:        &in.CustomerID,
		Origin:            &in.Origin,
		Destination:       &in.Destination,
		Status:            &in.Status,
		Type:              &in.Type,
		Value:             &in.Value,
		Weight:            &in.Weight,
		EstimatedDelivery: in.EstimatedDelivery,
		Carrier:           &in.Carrier,
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
