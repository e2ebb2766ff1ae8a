package model

import "strconv"

// trimTrailingZeros renders a price with stable, minimal decimal digits so
// that dedup keys are independent of how the float was produced upstream.
func trimTrailingZeros(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
