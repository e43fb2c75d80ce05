package model

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every legal order status.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// transitions is the lifecycle graph used when strict transitions are enabled.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// ParseOrderStatus converts a raw value into an OrderStatus. Matching is
// case-sensitive.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether s is one of the five order statuses.
func (s OrderStatus) Valid() bool {
	for _, status := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle graph allows moving from s to next.
// Re-applying the current status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}
