package enums

import "fmt"

// LineParentKind identifies which document owns a line item.
type LineParentKind string

const (
	LineParentBudget       LineParentKind = "BUDGET"
	LineParentServiceOrder LineParentKind = "SERVICE_ORDER"
)

// LineContentKind identifies what a line item charges for.
type LineContentKind string

const (
	LineContentProduct LineContentKind = "PRODUCT"
	LineContentService LineContentKind = "SERVICE"
)

// IsValid reports whether the value is a known LineParentKind.
func (k LineParentKind) IsValid() bool {
	return k == LineParentBudget || k == LineParentServiceOrder
}

// IsValid reports whether the value is a known LineContentKind.
func (k LineContentKind) IsValid() bool {
	return k == LineContentProduct || k == LineContentService
}

// ParseLineContentKind converts raw input into a LineContentKind.
func ParseLineContentKind(value string) (LineContentKind, error) {
	switch LineContentKind(value) {
	case LineContentProduct, LineContentService:
		return LineContentKind(value), nil
	}
	return "", fmt.Errorf("invalid line content kind %q", value)
}
