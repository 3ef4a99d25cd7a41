package orders

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to enums.OrderStatus
		allowed  bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPaid, enums.OrderStatusInProduction, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPaid, enums.OrderStatusPending, false},
		{enums.OrderStatusShipped, enums.OrderStatusInProduction, false},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPaid, false},
		{enums.OrderStatusCancelled, enums.OrderStatusCancelled, false},
	}
	for _, tt := range tests {
		err := checkTransition(tt.from, tt.to)
		if tt.allowed && err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tt.from, tt.to, err)
		}
		if !tt.allowed {
			if err == nil {
				t.Fatalf("%s -> %s should be rejected", tt.from, tt.to)
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				t.Fatalf("%s -> %s expected state conflict, got %v", tt.from, tt.to, err)
			}
		}
	}
}

func TestCanTransitionTreatsSameStatusAsNoMove(t *testing.T) {
	if CanTransition(enums.OrderStatusPaid, enums.OrderStatusPaid) {
		t.Fatalf("same status is not a transition")
	}
	if !CanTransition(enums.OrderStatusPaid, enums.OrderStatusShipped) {
		t.Fatalf("forward skip should be allowed")
	}
	if err := checkTransition(enums.OrderStatusPending, "LOST"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown target should be a validation error, got %v", err)
	}
}
