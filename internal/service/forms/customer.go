package forms

import (
	"strings"

	"github.com/mamadbah2/logidash/internal/domain/models"
)

// CustomerForm is the create/edit customer dialog as entered.
type CustomerForm struct {
	Name    string `json:"name" label:"Name" validate:"required"`
	Email   string `json:"email" label:"Email" validate:"required,email"`
	Phone   string `json:"phone" label:"Phone"`
	Company string `json:"company" label:"Company"`
	Address string `json:"address" label:"Address"`
	Status  string `json:"status" label:"Status" validate:"omitempty,oneof=active inactive"`
}

// CustomerFormFrom prefills the edit dialog from a stored customer.
func CustomerFormFrom(c models.Customer) CustomerForm {
	return CustomerForm{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Company: c.Company,
		Address: c.Address,
		Status:  string(c.Status),
	}
}

// Input converts a validated form into the insert shape. Status defaults to active.
func (f CustomerForm) Input() models.CustomerInput {
	status := models.CustomerStatus(f.Status)
	if status == "" {
		status = models.CustomerActive
	}
	return models.CustomerInput{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Company: strings.TrimSpace(f.Company),
		Address: strings.TrimSpace(f.Address),
		Status:  status,
	}
}

// Patch converts a validated form into a full-replacement update.
func (f CustomerForm) Patch() models.CustomerPatch {
	in := f.Input()
	return models.CustomerPatch{
		Name:    &in.Name,
		Email:   &in.Email,
		Phone:   &in.Phone,
		Company: &in.Company,
		Address: &in.Address,
		Status:  &in.Status,
	}
}
