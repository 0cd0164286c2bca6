package enums

import "fmt"

// ServiceOrderStatus tracks the lifecycle of a work order.
type ServiceOrderStatus string

const (
	ServiceOrderStatusAwaitingStart ServiceOrderStatus = "AWAITING_START"
	ServiceOrderStatusInProgress    ServiceOrderStatus = "IN_PROGRESS"
	ServiceOrderStatusAwaitingParts ServiceOrderStatus = "AWAITING_PARTS"
	ServiceOrderStatusCompleted     ServiceOrderStatus = "COMPLETED"
	ServiceOrderStatusCancelled     ServiceOrderStatus = "CANCELLED"
)

var validServiceOrderStatuses = []ServiceOrderStatus{
	ServiceOrderStatusAwaitingStart,
	ServiceOrderStatusInProgress,
	ServiceOrderStatusAwaitingParts,
	ServiceOrderStatusCompleted,
	ServiceOrderStatusCancelled,
}

type statusLabel struct {
	label       string
	description string
}

var serviceOrderCustomerLabels = map[ServiceOrderStatus]statusLabel{
	ServiceOrderStatusAwaitingStart: {label: "Waiting", description: "Vehicle is queued for service"},
	ServiceOrderStatusInProgress:    {label: "In Maintenance", description: "Mechanic is working on the vehicle"},
	ServiceOrderStatusAwaitingParts: {label: "On Hold - Awaiting Parts", description: "Service paused until parts arrive"},
	ServiceOrderStatusCompleted:     {label: "Ready for Pickup", description: "Service finished, vehicle can be collected"},
	ServiceOrderStatusCancelled:     {label: "Cancelled", description: "Service order was cancelled"},
}

// String implements fmt.Stringer.
func (s ServiceOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceOrderStatus.
func (s ServiceOrderStatus) IsValid() bool {
	for _, candidate := range validServiceOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can no longer change status.
func (s ServiceOrderStatus) IsTerminal() bool {
	return s == ServiceOrderStatusCompleted || s == ServiceOrderStatusCancelled
}

// CustomerLabel returns the short status text shown to vehicle owners.
func (s ServiceOrderStatus) CustomerLabel() string {
	return serviceOrderCustomerLabels[s].label
}

// CustomerDescription returns the longer status text shown to vehicle owners.
func (s ServiceOrderStatus) CustomerDescription() string {
	return serviceOrderCustomerLabels[s].description
}

// ParseServiceOrderStatus converts raw input into a ServiceOrderStatus.
func ParseServiceOrderStatus(value string) (ServiceOrderStatus, error) {
	for _, candidate := range validServiceOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service order status %q", value)
}
