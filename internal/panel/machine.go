// Package panel implements the terminal admin panel for managing listings.
package panel

import (
	"errors"
	"strings"

	"github.com/patitas-adopcion/apiserver/types"
)

var (
	ErrInvalidTransition = errors.New("invalid panel transition")
	ErrInvalidAge        = errors.New(`Formato de edad inválido. Use por ejemplo "2 años" o "9 meses".`)
)

// State is where the panel is in the edit cycle.
type State int

const (
	Browsing State = iota
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Action is the write a submitted form turns into.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
)

// Request is what Submit asks the caller to send to the API.
type Request struct {
	Action  Action
	ID      int
	Listing types.Listing
}

// Machine tracks the form and the listing being edited. It performs no I/O;
// the caller runs the returned Request and reports back with Succeed or Fail.
type Machine struct {
	state  State
	resume State

	editingID int
	original  Form
	form      Form
}

func NewMachine() *Machine {
	return &Machine{state: Browsing}
}

func (m *Machine) State() State { return m.state }

// EditingID is the id of the listing loaded into the form, or 0 for a new one.
func (m *Machine) EditingID() int { return m.editingID }

// Form returns a copy of the current form values.
func (m *Machine) Form() Form { return m.form }

// SetField changes one form value. The form is frozen while submitting.
func (m *Machine) SetField(field Field, value string) error {
	if m.state == Submitting {
		return ErrInvalidTransition
	}
	m.form.Set(field, value)
	return nil
}

// Dirty reports whether the form differs from the record it was loaded
// from, or from an empty form when adding.
func (m *Machine) Dirty() bool {
	return m.form != m.original
}

// Edit loads listing into the form.
func (m *Machine) Edit(listing types.Listing) error {
	if m.state == Submitting {
		return ErrInvalidTransition
	}
	m.editingID = listing.ID
	m.original = FormFromListing(listing)
	m.form = m.original
	m.state = Editing
	return nil
}

// Submit validates the form and moves to submitting. Validation errors
// leave the state and form untouched.
func (m *Machine) Submit() (Request, error) {
	if m.state == Submitting {
		return Request{}, ErrInvalidTransition
	}
	if !types.ValidAge(strings.TrimSpace(m.form.Age)) {
		return Request{}, ErrInvalidAge
	}

	req := Request{Action: ActionCreate, Listing: m.form.Listing()}
	if m.editingID != 0 {
		req.Action = ActionUpdate
		req.ID = m.editingID
	}

	m.resume = m.state
	m.state = Submitting
	return req, nil
}

// Succeed finishes a submit: back to browsing with a clear form.
func (m *Machine) Succeed() error {
	if m.state != Submitting {
		return ErrInvalidTransition
	}
	m.reset()
	return nil
}

// Fail returns to the state Submit was called from, keeping the form.
func (m *Machine) Fail(error) error {
	if m.state != Submitting {
		return ErrInvalidTransition
	}
	m.state = m.resume
	return nil
}

// Cancel discards the form.
func (m *Machine) Cancel() error {
	if m.state == Submitting {
		return ErrInvalidTransition
	}
	m.reset()
	return nil
}

func (m *Machine) reset() {
	m.state = Browsing
	m.editingID = 0
	m.original = Form{}
	m.form = Form{}
}
