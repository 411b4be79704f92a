package trade

import (
	"fmt"
	"strings"

	"github.com/salesflow/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusReturned  OrderStatus = "RETURNED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// allowedTransitions is the canonical transition table.
// CANCELLED and RETURNED are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusReturned},
	OrderStatusCancelled: {},
	OrderStatusReturned:  {},
}

// AllOrderStatuses returns every status in lifecycle order
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusReturned,
		OrderStatusCancelled,
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is one of the six known values
func (s OrderStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal returns true if no transition leaves the status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// AllowedTransitions returns the statuses reachable from s
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	next := allowedTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus parses a status name case-insensitively
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", shared.NewDomainError(
			shared.CodeInvalidTransition,
			fmt.Sprintf("Unknown order status %q, expected one of %s", value, joinStatuses(AllOrderStatuses())),
		)
	}
	return status, nil
}

// DecideTransition is the single decision function every entry point uses.
// It never has side effects.
func DecideTransition(from, to OrderStatus) error {
	if !to.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Unknown order status %q", to))
	}
	if !from.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Order is in unknown status %q", from))
	}

	// Shipped goods are never cancelled; they come back through the return flow.
	if to == OrderStatusCancelled {
		switch from {
		case OrderStatusShipped, OrderStatusDelivered, OrderStatusReturned:
			return shared.NewDomainError(
				shared.CodeInvalidTransition,
				fmt.Sprintf("Cannot move order to %s: current status is %s, use the return flow instead", to, from),
			)
		}
	}
	if to == OrderStatusReturned && from != OrderStatusDelivered {
		return shared.NewDomainError(
			shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot move order to %s: current status is %s, only delivered orders can be returned", to, from),
		)
	}

	if !from.CanTransitionTo(to) {
		next := "none, the status is final"
		if allowed := from.AllowedTransitions(); len(allowed) > 0 {
			next = joinStatuses(allowed)
		}
		return shared.NewDomainError(
			shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot move order to %s: current status is %s, allowed next: %s", to, from, next),
		)
	}
	return nil
}

func joinStatuses(statuses []OrderStatus) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
