package view

import "github.com/mamadbah2/logidash/internal/domain/models"

// RecentShipmentsLimit is how many shipments the dashboard table shows.
const RecentShipmentsLimit = 5

// Dashboard is the view model of the dashboard section. Metrics is nil while
// either collection is still loading.
type Dashboard struct {
	Metrics         *models.DashboardMetrics `json:"metrics"`
	RecentShipments []models.Shipment        `json:"recent_shipments"`
	Activities      []models.Activity        `json:"activities"`
	Loading         bool                     `json:"loading"`
}

// BuildDashboard assembles the dashboard from cached rows, newest first.
func BuildDashboard(shipments []models.Shipment, customers []models.Customer, activities []models.Activity, loading bool) Dashboard {
	recent := shipments
	if len(recent) > RecentShipmentsLimit {
		recent = recent[:RecentShipmentsLimit]
	}

	d := Dashboard{
		RecentShipments: append([]models.Shipment{}, recent...),
		Activities:      append([]models.Activity{}, activities...),
		Loading:         loading,
	}
	if !loading {
		m := models.ComputeMetrics(shipments, customers)
		d.Metrics = &m
	}
	return d
}
