package enums

import (
	"fmt"
	"strings"
)

// NotificationType classifies staff notifications.
type NotificationType string

const (
	NotificationTypeLowStock NotificationType = "low_stock"
	NotificationTypeSystem   NotificationType = "system"
)

func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationTypeLowStock, NotificationTypeSystem:
		return true
	}
	return false
}

// ParseNotificationType accepts any casing and surrounding whitespace.
func ParseNotificationType(value string) (NotificationType, error) {
	n := NotificationType(strings.ToLower(strings.TrimSpace(value)))
	if !n.IsValid() {
		return "", fmt.Errorf("invalid notification type %q", value)
	}
	return n, nil
}
