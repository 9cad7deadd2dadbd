// Package forms drives the portal's login and registration forms: typed
// form records with declarative rule tables, a submission state machine,
// and the submit handlers that talk to the backend.
package forms

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/healthfirst/portal/pkg/types"
)

// Status is the submission state of a form
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

var transitions = map[Status][]Status{
	StatusIdle:       {StatusSubmitting},
	StatusSubmitting: {StatusSuccess, StatusError},
	StatusError:      {StatusSubmitting},
	StatusSuccess:    {StatusSubmitting},
}

// CanTransition reports whether from may move to to
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Notice carries the non-fatal outcome of a submission, such as an offline
// fixture being used in place of the backend
type Notice struct {
	Fallback bool
	Warning  error
}

// SubmitFunc performs the side effect of a valid submission
type SubmitFunc[T any] func(ctx context.Context, values T) (Notice, error)

// Controller holds one form's values, validation state and submission state
type Controller[T any] struct {
	mu        sync.Mutex
	validator *Validator
	values    T

	touched     map[string]bool
	submitted   bool
	fieldErrors map[string]string

	status      Status
	submitError string
	warning     string
}

// NewController creates a controller in the idle state and validates the
// initial values
func NewController[T any](v *Validator, initial T) *Controller[T] {
	c := &Controller[T]{
		validator: v,
		values:    initial,
		touched:   make(map[string]bool),
		status:    StatusIdle,
	}
	c.fieldErrors = v.Check(c.values)
	return c
}

// Values returns a copy of the current values
func (c *Controller[T]) Values() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// Set applies a change to the values and re-validates
func (c *Controller[T]) Set(change func(*T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	change(&c.values)
	c.fieldErrors = c.validator.Check(c.values)
}

// Touch marks a field as visited so its error becomes visible
func (c *Controller[T]) Touch(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched[field] = true
}

// Valid reports whether every rule passes
func (c *Controller[T]) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fieldErrors) == 0
}

// FieldErrors returns every current validation error
func (c *Controller[T]) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyErrors(c.fieldErrors, nil)
}

// VisibleErrors returns the errors of touched fields, or of every field
// once a submission has been attempted
func (c *Controller[T]) VisibleErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return copyErrors(c.fieldErrors, nil)
	}
	return copyErrors(c.fieldErrors, c.touched)
}

func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SubmitError is the banner message of the last failed submission
func (c *Controller[T]) SubmitError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitError
}

// Warning is the non-fatal banner of the last successful submission
func (c *Controller[T]) Warning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warning
}

// Success reports whether the last submission succeeded
func (c *Controller[T]) Success() bool {
	return c.Status() == StatusSuccess
}

// Reset returns the form to idle, keeping its values
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusIdle
	c.submitted = false
	c.touched = make(map[string]bool)
	c.submitError = ""
	c.warning = ""
}

// Submit validates the values and, when they pass, runs fn. Invalid values
// never reach fn. A submission already in flight is rejected.
func (c *Controller[T]) Submit(ctx context.Context, fn SubmitFunc[T]) error {
	c.mu.Lock()
	if !CanTransition(c.status, StatusSubmitting) {
		c.mu.Unlock()
		return types.NewValidationError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("cannot submit while %s", c.status), nil)
	}

	c.submitted = true
	c.fieldErrors = c.validator.Check(c.values)
	if len(c.fieldErrors) > 0 {
		fields := make([]string, 0, len(c.fieldErrors))
		for f := range c.fieldErrors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		c.mu.Unlock()
		return types.NewValidationError(types.ErrCodeValidationFailed,
			"Please correct the highlighted fields.", map[string]interface{}{"fields": fields})
	}

	c.status = StatusSubmitting
	c.submitError = ""
	c.warning = ""
	values := c.values
	c.mu.Unlock()

	notice, err := fn(ctx, values)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = StatusError
		c.submitError = types.UserMessage(err)
		return err
	}
	c.status = StatusSuccess
	if notice.Warning != nil {
		c.warning = types.UserMessage(notice.Warning)
	}
	return nil
}

func copyErrors(src map[string]string, only map[string]bool) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		if only == nil || only[k] {
			out[k] = v
		}
	}
	return out
}
