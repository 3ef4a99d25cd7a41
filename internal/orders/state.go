package orders

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// checkTransition enforces the fulfillment graph. Moves go forward only,
// skipping ahead is allowed, and CANCELLED is reachable until the order is
// delivered.
func checkTransition(from, to enums.OrderStatus) error {
	switch {
	case !to.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", to)
	case from.IsTerminal():
		return stateConflict(from, to, "order is already closed")
	case to == enums.OrderStatusCancelled:
		return nil
	case to.Rank() <= from.Rank():
		return stateConflict(from, to, "orders only move forward")
	}
	return nil
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to enums.OrderStatus) bool {
	return from != to && checkTransition(from, to) == nil
}

func stateConflict(from, to enums.OrderStatus, msg string) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s: %s", from, to, msg).
		WithDetails(map[string]any{"from": from, "to": to})
}
