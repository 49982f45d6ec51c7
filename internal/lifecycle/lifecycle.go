// Package lifecycle owns the order status state machine. Every write path
// plans its status change here before touching a store.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/suteetoe/restaurantpro/internal/model"
)

var (
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrTerminalStatus    = errors.New("order status is terminal")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// TransitionError describes a rejected status change
type TransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match both the specific cause and ErrIllegalTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

var forward = map[model.OrderStatus]model.OrderStatus{
	model.StatusInProgress:      model.StatusAwaitingPayment,
	model.StatusAwaitingPayment: model.StatusPaid,
}

// Initial is the status of a freshly placed order
func Initial() model.OrderStatus {
	return model.StatusInProgress
}

// Next returns the single status reachable from s. ok is false for pago.
func Next(s model.OrderStatus) (next model.OrderStatus, ok bool) {
	next, ok = forward[s]
	return next, ok
}

// Change is a planned status write
type Change struct {
	From   model.OrderStatus
	To     model.OrderStatus
	PaidAt *time.Time
}

// Plan validates moving an order from current to target at time now.
// Only the single forward step is allowed; PaidAt is set only when target is pago.
func Plan(current, target model.OrderStatus, now time.Time) (Change, error) {
	if !current.Valid() || !target.Valid() {
		return Change{}, &TransitionError{From: current, To: target, Err: ErrUnknownStatus}
	}
	if current == model.StatusPaid {
		return Change{}, &TransitionError{From: current, To: target, Err: ErrTerminalStatus}
	}
	if next, _ := Next(current); next != target {
		return Change{}, &TransitionError{From: current, To: target, Err: ErrIllegalTransition}
	}

	change := Change{From: current, To: target}
	if target == model.StatusPaid {
		paidAt := now.UTC()
		change.PaidAt = &paidAt
	}
	return change, nil
}

// Apply returns o with the change applied
func Apply(o model.Order, c Change) model.Order {
	o.Status = c.To
	if c.PaidAt != nil {
		paidAt := *c.PaidAt
		o.PaidAt = &paidAt
	}
	return o
}
