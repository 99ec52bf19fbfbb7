package view

import (
	"strings"
	"sync"
)

// Section is a top-level area of the dashboard.
type Section string

const (
	SectionDashboard      Section = "dashboard"
	SectionShipments      Section = "shipments"
	SectionCustomers      Section = "customers"
	SectionTracking       Section = "tracking"
	SectionDocuments      Section = "documents"
	SectionAnalytics      Section = "analytics"
	SectionCommunications Section = "communications"
	SectionSettings       Section = "settings"
)

// SectionInfo is what the navigation and header show for a section.
type SectionInfo struct {
	ID          Section `json:"id"`
	Label       string  `json:"label"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Placeholder string  `json:"placeholder,omitempty"`
}

var sections = []SectionInfo{
	{SectionDashboard, "Dashboard", "Dashboard", "Overview of your logistics operations", ""},
	{SectionShipments, "Shipments", "Shipments", "Manage all your import and export shipments", ""},
	{SectionCustomers, "Customers", "Customers", "Manage your customer relationships", ""},
	{SectionTracking, "Tracking", "Shipment Tracking", "Real-time shipment tracking", "Real-time tracking interface coming soon"},
	{SectionDocuments, "Documents", "Documents", "Manage shipping documents and compliance", "Document management system coming soon"},
	{SectionAnalytics, "Analytics", "Analytics & Reports", "Business insights and performance metrics", "Advanced analytics dashboard coming soon"},
	{SectionCommunications, "Communications", "Communications", "Customer communications and notifications", "Communication center coming soon"},
	{SectionSettings, "Settings", "Settings", "System settings and preferences", "System settings coming soon"},
}

// Sections lists every section in navigation order.
func Sections() []SectionInfo {
	return append([]SectionInfo(nil), sections...)
}

// ParseSection resolves a section id. Unknown ids fall back to the dashboard.
func ParseSection(id string) Section {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range sections {
		if string(s.ID) == id {
			return s.ID
		}
	}
	return SectionDashboard
}

// Info returns the navigation entry of s.
func (s Section) Info() SectionInfo {
	for _, info := range sections {
		if info.ID == s {
			return info
		}
	}
	return sections[0]
}

// Shell tracks the active section.
type Shell struct {
	mu     sync.RWMutex
	active Section
}

// NewShell starts on the dashboard.
func NewShell() *Shell {
	return &Shell{active: SectionDashboard}
}

// Navigate switches to the section named id and returns it.
func (s *Shell) Navigate(id string) Section {
	next := ParseSection(id)
	s.mu.Lock()
	s.active = next
	s.mu.Unlock()
	return next
}

// Active returns the current section.
func (s *Shell) Active() Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Header is the title bar of the active section.
type Header struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	ShowNewShipment bool   `json:"show_new_shipment"`
}

// Header describes the title bar; the quick "new shipment" action only
// appears on the dashboard.
func (s *Shell) Header() Header {
	info := s.Active().Info()
	return Header{
		Title:           info.Title,
		Subtitle:        info.Subtitle,
		ShowNewShipment: info.ID == SectionDashboard,
	}
}
