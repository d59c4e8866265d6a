package enums

import "fmt"

// CourierStatus captures courier availability.
type CourierStatus string

const (
	CourierStatusOffline   CourierStatus = "offline"
	CourierStatusAvailable CourierStatus = "available"
	CourierStatusBusy      CourierStatus = "busy"
	CourierStatusOnBreak   CourierStatus = "on_break"
)

var validCourierStatuses = []CourierStatus{
	CourierStatusOffline,
	CourierStatusAvailable,
	CourierStatusBusy,
	CourierStatusOnBreak,
}

// String implements fmt.Stringer.
func (c CourierStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CourierStatus.
func (c CourierStatus) IsValid() bool {
	for _, candidate := range validCourierStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCourierStatus converts raw input into a CourierStatus.
func ParseCourierStatus(value string) (CourierStatus, error) {
	for _, candidate := range validCourierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid courier status %q", value)
}
