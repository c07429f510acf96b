// Package units provides shared constants and conversion for the length
// units maps are labelled in.
package units

import "fmt"

// Length unit constants
const (
	Metres = "m"
	Feet   = "ft"
)

// metresPerFoot is the international foot.
const metresPerFoot = 0.3048

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Metres, Feet}

// IsValidLength checks if the given unit is in the list of valid length units
func IsValidLength(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidLengthUnitsString returns a comma-separated string of valid length
// units for error messages
func GetValidLengthUnitsString() string {
	return "m, ft"
}

// ConvertLength converts a length from metres to the target unit.
// Survey geometry is always held in metres.
func ConvertLength(metres float64, targetUnit string) float64 {
	switch targetUnit {
	case Feet:
		return metres / metresPerFoot
	case Metres:
		return metres
	default:
		return metres
	}
}

// FormatLength converts metres to unit and formats it with two decimals,
// e.g. "12.34 m". Unknown units are shown in metres.
func FormatLength(metres float64, unit string) string {
	if !IsValidLength(unit) {
		unit = Metres
	}
	return fmt.Sprintf("%.2f %s", ConvertLength(metres, unit), unit)
}
