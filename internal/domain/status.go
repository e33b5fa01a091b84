package domain

import "time"

type Status string

const (
	StatusReceived      Status = "received"
	StatusPreparing     Status = "preparing"
	StatusDelivering    Status = "delivering"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusPaymentFailed Status = "payment_failed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleStaff    ActorRole = "staff"
	RoleManager  ActorRole = "manager"
)

// IsStaff reports whether the role may drive kitchen-side transitions.
func (r ActorRole) IsStaff() bool {
	return r == RoleStaff || r == RoleManager
}

// validTransitions is the full lifecycle graph. Terminal states have no exits.
var validTransitions = map[Status][]Status{
	StatusReceived:      {StatusPreparing, StatusCancelled, StatusPaymentFailed},
	StatusPreparing:     {StatusDelivering, StatusCancelled, StatusPaymentFailed},
	StatusDelivering:    {StatusCompleted, StatusCancelled, StatusPaymentFailed},
	StatusCompleted:     {},
	StatusCancelled:     {},
	StatusPaymentFailed: {},
}

// CanTransitionTo checks the lifecycle graph, not actor permissions.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// StatusLog represents an audit entry for order status changes.
type StatusLog struct {
	ID        int
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
