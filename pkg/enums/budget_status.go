package enums

import "fmt"

// BudgetStatus tracks the single decision a budget can receive.
type BudgetStatus string

const (
	BudgetStatusPending  BudgetStatus = "PENDING"
	BudgetStatusApproved BudgetStatus = "APPROVED"
	BudgetStatusRejected BudgetStatus = "REJECTED"
)

var validBudgetStatuses = []BudgetStatus{
	BudgetStatusPending,
	BudgetStatusApproved,
	BudgetStatusRejected,
}

// String implements fmt.Stringer.
func (b BudgetStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BudgetStatus.
func (b BudgetStatus) IsValid() bool {
	for _, candidate := range validBudgetStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined.
func (b BudgetStatus) IsTerminal() bool {
	return b == BudgetStatusApproved || b == BudgetStatusRejected
}

// ParseBudgetStatus converts raw input into a BudgetStatus.
func ParseBudgetStatus(value string) (BudgetStatus, error) {
	for _, candidate := range validBudgetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid budget status %q", value)
}
