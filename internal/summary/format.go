package summary

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatMarketCap renders a monetary magnitude: billions and millions with
// two decimals and a B/M suffix, smaller values as a comma-grouped whole
// dollar amount.
func FormatMarketCap(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return "$" + humanize.Comma(int64(math.Round(v)))
	}
}
