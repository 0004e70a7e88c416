package orders

import "errors"

// Status is the closed set of order lifecycle states. Orders move forward
// through new -> waiting_payment -> in_progress -> completed; cancelled is a
// terminal alternative reachable only through an explicit update.
type Status string

const (
	StatusNew            Status = "new"
	StatusWaitingPayment Status = "waiting_payment"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

var (
	// ErrOrderClosed is returned when advancing an order already in a
	// terminal status. Closed orders stay closed.
	ErrOrderClosed = errors.New("order is in a terminal status")

	ErrUnknownStatus = errors.New("unknown order status")
)

var forward = map[Status]Status{
	StatusNew:            StatusWaitingPayment,
	StatusWaitingPayment: StatusInProgress,
	StatusInProgress:     StatusCompleted,
}

// Valid reports whether s belongs to the closed status set.
func Valid(s Status) bool {
	switch s {
	case StatusNew, StatusWaitingPayment, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Next returns the forward progression from s. Terminal statuses return
// ErrOrderClosed; a status outside the closed set returns ErrUnknownStatus.
func Next(s Status) (Status, error) {
	if IsTerminal(s) {
		return "", ErrOrderClosed
	}
	n, ok := forward[s]
	if !ok {
		return "", ErrUnknownStatus
	}
	return n, nil
}
