package enums

import "fmt"

// MovementDirection indicates whether a stock movement adds or removes units.
type MovementDirection string

const (
	MovementDirectionIn  MovementDirection = "IN"
	MovementDirectionOut MovementDirection = "OUT"
)

var validMovementDirections = []MovementDirection{
	MovementDirectionIn,
	MovementDirectionOut,
}

// String implements fmt.Stringer.
func (d MovementDirection) String() string {
	return string(d)
}

// IsValid reports whether the direction is recognized.
func (d MovementDirection) IsValid() bool {
	for _, candidate := range validMovementDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseMovementDirection converts a raw string into a MovementDirection.
func ParseMovementDirection(value string) (MovementDirection, error) {
	for _, candidate := range validMovementDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement direction %q", value)
}

// MovementCause tags the business operation that produced a stock movement.
type MovementCause string

const (
	MovementCausePurchase   MovementCause = "PURCHASE"
	MovementCauseInitial    MovementCause = "INITIAL"
	MovementCauseAdjustment MovementCause = "ADJUSTMENT"
	MovementCauseSale       MovementCause = "SALE"
)

var validMovementCauses = []MovementCause{
	MovementCausePurchase,
	MovementCauseInitial,
	MovementCauseAdjustment,
	MovementCauseSale,
}

// String implements fmt.Stringer.
func (c MovementCause) String() string {
	return string(c)
}

// IsValid reports whether the cause is recognized.
func (c MovementCause) IsValid() bool {
	for _, candidate := range validMovementCauses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMovementCause converts a raw string into a MovementCause.
func ParseMovementCause(value string) (MovementCause, error) {
	for _, candidate := range validMovementCauses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement cause %q", value)
}

// AllowsInbound reports whether the cause can create inventory batches.
func (c MovementCause) AllowsInbound() bool {
	switch c {
	case MovementCausePurchase, MovementCauseInitial, MovementCauseAdjustment:
		return true
	default:
		return false
	}
}
