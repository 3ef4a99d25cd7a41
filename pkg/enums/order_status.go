package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks the fulfillment lifecycle of a storefront order.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusPaid         OrderStatus = "PAID"
	OrderStatusInProduction OrderStatus = "IN_PRODUCTION"
	OrderStatusShipped      OrderStatus = "SHIPPED"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
)

// validOrderStatuses is ordered along the fulfillment path; CANCELLED sits
// outside the path and is handled separately by Rank.
var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusInProduction,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// OrderStatuses returns every known status in fulfillment order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Rank is the position of s on the fulfillment path, or -1 for CANCELLED and
// unknown values.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusPaid:
		return 1
	case OrderStatusInProduction:
		return 2
	case OrderStatusShipped:
		return 3
	case OrderStatusDelivered:
		return 4
	default:
		return -1
	}
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching ignores
// case and surrounding whitespace.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
