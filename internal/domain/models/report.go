package models

import "time"

// OperationsReport is the daily snapshot of the dashboard stored by the scheduler.
type OperationsReport struct {
	Date            time.Time `bson:"date" json:"date"`
	TotalShipments  int       `bson:"total_shipments" json:"total_shipments"`
	ActiveShipments int       `bson:"active_shipments" json:"active_shipments"`
	InCustoms       int       `bson:"in_customs" json:"in_customs"`
	Delayed         int       `bson:"delayed" json:"delayed"`
	Delivered       int       `bson:"delivered" json:"delivered"`
	TotalValue      float64   `bson:"total_value" json:"total_value"`
	Customers       int       `bson:"customers" json:"customers"`
	OnTimeRate      float64   `bson:"on_time_rate" json:"on_time_rate"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
