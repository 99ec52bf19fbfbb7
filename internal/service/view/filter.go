package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

// StatusAll disables the status predicate of a filter.
const StatusAll = "all"

// ErrUnknownStatus is returned by Validate for a status outside the enum.
var ErrUnknownStatus = errors.New("unknown status")

// ShipmentFilter narrows the shipment list. Both predicates must hold.
type ShipmentFilter struct {
	Search string `form:"search" json:"search"`
	Status string `form:"status" json:"status"`
}

// Match reports whether s satisfies the filter.
func (f ShipmentFilter) Match(s models.Shipment) bool {
	if !statusMatches(f.Status, string(s.Status)) {
		return false
	}
	term := normalize(f.Search)
	if term == "" {
		return true
	}
	if contains(s.Reference, term) {
		return true
	}
	if s.Customer != nil {
		return contains(s.Customer.Name, term) || contains(s.Customer.Company, term)
	}
	return false
}

// Validate rejects a status that is neither empty, "all" nor a shipment status.
func (f ShipmentFilter) Validate() error {
	return checkStatus(f.Status, func(s string) bool { return models.ShipmentStatus(s).Valid() })
}

// Apply returns the matching rows in their original order.
func (f ShipmentFilter) Apply(rows []models.Shipment) []models.Shipment {
	return filter(rows, f.Match)
}

// CustomerFilter narrows the customer list. Both predicates must hold.
type CustomerFilter struct {
	Search string `form:"search" json:"search"`
	Status string `form:"status" json:"status"`
}

// Match reports whether c satisfies the filter.
func (f CustomerFilter) Match(c models.Customer) bool {
	if !statusMatches(f.Status, string(c.Status)) {
		return false
	}
	term := normalize(f.Search)
	if term == "" {
		return true
	}
	return contains(c.Name, term) || contains(c.Company, term) || contains(c.Email, term)
}

// Validate rejects a status that is neither empty, "all" nor a customer status.
func (f CustomerFilter) Validate() error {
	return checkStatus(f.Status, func(s string) bool { return models.CustomerStatus(s).Valid() })
}

// Apply returns the matching rows in their original order.
func (f CustomerFilter) Apply(rows []models.Customer) []models.Customer {
	return filter(rows, f.Match)
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// statusMatches compares against the enum value exactly.
func statusMatches(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || want == StatusAll || want == got
}

func checkStatus(status string, valid func(string) bool) error {
	status = strings.TrimSpace(status)
	if status == "" || status == StatusAll || valid(status) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(field, term string) bool {
	return strings.Contains(strings.ToLower(field), term)
}
