// Package units converts rates between their display representation (percent,
// e.g. 7.53) and their storage representation (decimal fraction, e.g. 0.0753).
// Catalog rates and calculation payloads are always decimals; form fields are
// always percents. The conversion boundary lives here so no caller ever scales
// a value twice.
package units

import (
	"math"

	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// Tolerance is the maximum drift accepted on a percent/decimal round trip.
const Tolerance = constants.RateTolerance

// ToDisplayPercent converts a decimal-fraction rate to its percent display
// value. The input must be known to be stored as a decimal.
func ToDisplayPercent(decimal float64) float64 {
	return decimal * constants.PercentageMultiplier
}

// ToStorageDecimal converts a value to decimal-fraction form. When
// alreadyPercent is true the value is a percent display field and is divided
// by 100; otherwise it is returned unchanged. Submission paths always know the
// source format and must pass it explicitly.
func ToStorageDecimal(value float64, alreadyPercent bool) float64 {
	if alreadyPercent {
		return value / constants.PercentageMultiplier
	}
	return value
}

// FromUnknown infers the storage-decimal value of a rate whose raw
// representation was lost, e.g. when hydrating a form from an old persisted
// record. A value <= 1 is taken as an already-decimal fraction; a value > 1 is
// taken as a percent. A stored value of exactly 1 is ambiguous (1% mis-stored
// vs. 100% as 1.0) and resolves to the decimal reading; persist an explicit
// unit tag to avoid relying on this at all. Never use this at submission time.
func FromUnknown(value float64) float64 {
	if value > 1 {
		return value / constants.PercentageMultiplier
	}
	return value
}

// RoundTripEqual reports whether two rates are equal within Tolerance.
func RoundTripEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
