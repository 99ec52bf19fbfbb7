package view

import "fmt"

// ModalKind tells which form, if any, is open.
type ModalKind string

const (
	ModalClosed   ModalKind = "closed"
	ModalCreating ModalKind = "creating"
	ModalEditing  ModalKind = "editing"
)

// Modal is the form dialog state. EditingID is only set while editing.
type Modal struct {
	Kind      ModalKind `json:"kind"`
	EditingID string    `json:"editing_id,omitempty"`
}

// Closed is the zero-state modal.
func Closed() Modal { return Modal{Kind: ModalClosed} }

// Creating opens the form for a new record.
func Creating() Modal { return Modal{Kind: ModalCreating} }

// Editing opens the form on the record with the given id.
func Editing(id string) Modal { return Modal{Kind: ModalEditing, EditingID: id} }

// IsOpen reports whether a form is shown.
func (m Modal) IsOpen() bool { return m.Kind == ModalCreating || m.Kind == ModalEditing }

func (m Modal) String() string {
	if m.Kind == ModalEditing {
		return fmt.Sprintf("editing(%s)", m.EditingID)
	}
	if m.Kind == "" {
		return string(ModalClosed)
	}
	return string(m.Kind)
}
