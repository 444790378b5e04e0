package enums

import "fmt"

// EventStatus is the derived lifecycle state of a sales event. It is computed
// from the event window against the current time and never persisted.
type EventStatus string

const (
	EventStatusPlanned   EventStatus = "PLANNED"
	EventStatusActive    EventStatus = "ACTIVE"
	EventStatusCompleted EventStatus = "COMPLETED"
)

var validEventStatuses = []EventStatus{
	EventStatusPlanned,
	EventStatusActive,
	EventStatusCompleted,
}

// String implements fmt.Stringer.
func (s EventStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is recognized.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEventStatus converts a raw string into an EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
