package notify

import (
	"context"

	"shopfront/internal/model"
)

// Kind identifies a customer notification.
type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindOrderShipped      Kind = "order_shipped"
	KindOrderDelivered    Kind = "order_delivered"
)

// Kinds lists every notification kind.
var Kinds = []Kind{KindOrderConfirmation, KindOrderShipped, KindOrderDelivered}

// KindForStatus returns the notification sent when an order enters status.
func KindForStatus(status model.OrderStatus) (Kind, bool) {
	switch status {
	case model.StatusShipped:
		return KindOrderShipped, true
	case model.StatusDelivered:
		return KindOrderDelivered, true
	default:
		return "", false
	}
}

// Message is a rendered email ready for delivery.
type Message struct {
	Kind     Kind
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier queues customer notifications about an order. Implementations
// must not block the caller and must never fail the business operation.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, order *model.Order)
}

// Recipient is the address notifications about order go to: the shipping
// snapshot email, falling back to the buyer's account email.
func Recipient(order *model.Order) string {
	if order.ShippingAddress.Email != "" {
		return order.ShippingAddress.Email
	}
	return order.BuyerEmail
}

// ShortID is the order number shown to customers.
func ShortID(order *model.Order) string {
	return order.ID.String()[:8]
}
