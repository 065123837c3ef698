package domain

// Side represents the direction of a position (long or short).
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// IsValid reports whether the side is one of the known values.
func (s Side) IsValid() bool {
	return s == Long || s == Short
}

// MarginMode determines which collateral pool backs a position.
type MarginMode string

const (
	// Isolated positions are backed only by their own allocated margin.
	Isolated MarginMode = "isolated"
	// Cross positions are backed jointly by the account's total equity.
	Cross MarginMode = "cross"
)

// IsValid reports whether the margin mode is one of the known values.
func (m MarginMode) IsValid() bool {
	return m == Isolated || m == Cross
}

// PositionStatus represents the lifecycle state of a position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)
