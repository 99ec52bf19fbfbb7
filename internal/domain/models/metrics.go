package models

import "math"

// DashboardMetrics are the headline figures shown on the dashboard.
type DashboardMetrics struct {
	ActiveShipments int     `json:"active_shipments"`
	TotalRevenue    float64 `json:"total_revenue"`
	Customers       int     `json:"customers"`
	OnTimeDelivery  float64 `json:"on_time_delivery"`
	Delivered       int     `json:"delivered"`
	Delayed         int     `json:"delayed"`
	InCustoms       int     `json:"in_customs"`
}

// ComputeMetrics derives the dashboard figures from the cached rows.
//
// On-time delivery counts delivered shipments whose actual delivery is not
// later than the estimate, over delivered shipments carrying both dates. The
// result is a percentage rounded to one decimal.
func ComputeMetrics(shipments []Shipment, customers []Customer) DashboardMetrics {
	m := DashboardMetrics{Customers: len(customers)}

	var dated, onTime int
	for _, s := range shipments {
		m.TotalRevenue += s.Value
		switch s.Status {
		case StatusDelivered:
			m.Delivered++
			if s.EstimatedDelivery != nil && s.ActualDelivery != nil {
				dated++
				if !s.ActualDelivery.After(*s.EstimatedDelivery) {
					onTime++
				}
			}
			continue
		case StatusDelayed:
			m.Delayed++
		case StatusCustoms:
			m.InCustoms++
		}
		m.ActiveShipments++
	}

	if dated > 0 {
		m.OnTimeDelivery = math.Round(float64(onTime)/float64(dated)*1000) / 10
	}
	return m
}
