package enums

import "fmt"

// MovementDirection tells whether a ledger entry adds or removes stock.
type MovementDirection string

const (
	MovementIn  MovementDirection = "IN"
	MovementOut MovementDirection = "OUT"
)

var validMovementDirections = []MovementDirection{
	MovementIn,
	MovementOut,
}

// String implements fmt.Stringer.
func (d MovementDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known MovementDirection.
func (d MovementDirection) IsValid() bool {
	for _, candidate := range validMovementDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// Sign returns +1 for IN and -1 for OUT.
func (d MovementDirection) Sign() int {
	if d == MovementOut {
		return -1
	}
	return 1
}

// ParseMovementDirection converts raw input into a MovementDirection.
func ParseMovementDirection(value string) (MovementDirection, error) {
	for _, candidate := range validMovementDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement direction %q", value)
}

// MovementReason records which workflow produced a ledger entry.
type MovementReason string

const (
	MovementReasonSale                   MovementReason = "sale"
	MovementReasonServiceOrderCompletion MovementReason = "service_order_completion"
	MovementReasonPurchaseReceipt        MovementReason = "purchase_receipt"
	MovementReasonManualAdjustment       MovementReason = "manual_adjustment"
	MovementReasonInitialStock           MovementReason = "initial_stock"
)

var validMovementReasons = []MovementReason{
	MovementReasonSale,
	MovementReasonServiceOrderCompletion,
	MovementReasonPurchaseReceipt,
	MovementReasonManualAdjustment,
	MovementReasonInitialStock,
}

// String implements fmt.Stringer.
func (r MovementReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known MovementReason.
func (r MovementReason) IsValid() bool {
	for _, candidate := range validMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseMovementReason converts raw input into a MovementReason.
func ParseMovementReason(value string) (MovementReason, error) {
	for _, candidate := range validMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement reason %q", value)
}
