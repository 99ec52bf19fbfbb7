package forms

import (
	"context"
	"errors"
	"sync"

	"github.com/mamadbah2/logidash/internal/service/view"
)

// ErrSubmitting is returned when a submit starts while another is in flight.
var ErrSubmitting = errors.New("form submission already in progress")

// Controller owns one form dialog: which record it edits and whether a submit
// is in flight. The dialog closes only after a successful submit.
type Controller struct {
	validator *Validator

	mu         sync.Mutex
	modal      view.Modal
	submitting bool
}

// NewController returns a closed dialog.
func NewController(v *Validator) *Controller {
	if v == nil {
		v = NewValidator()
	}
	return &Controller{validator: v, modal: view.Closed()}
}

// OpenCreate shows an empty form.
func (c *Controller) OpenCreate() {
	c.setModal(view.Creating())
}

// OpenEdit shows the form for the record id.
func (c *Controller) OpenEdit(id string) {
	c.setModal(view.Editing(id))
}

// Close hides the form.
func (c *Controller) Close() {
	c.setModal(view.Closed())
}

// Modal returns the dialog state.
func (c *Controller) Modal() view.Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// Submitting reports whether a submit is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates form and runs mutate. Validation failures return
// FieldErrors without calling mutate. A failed mutate keeps the dialog open;
// surfacing the failure to the operator is up to mutate.
func (c *Controller) Submit(ctx context.Context, form any, mutate func(ctx context.Context) error) error {
	if err := c.validator.Check(form); err != nil {
		return err
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitting
	}
	c.submitting = true
	c.mu.Unlock()

	err := mutate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err == nil {
		c.modal = view.Closed()
	}
	return err
}

func (c *Controller) setModal(m view.Modal) {
	c.mu.Lock()
	c.modal = m
	c.mu.Unlock()
}
