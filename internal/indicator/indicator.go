// Package indicator provides technical indicator calculations over daily closes.
//
// Every indicator consumes prices one at a time through Update. The Engine
// replays a whole close column through fresh instances and collects the
// results into aligned series, so a batch run never carries state over.
package indicator

// Indicator is the interface for all single-line technical indicators.
type Indicator interface {
	// Name returns the indicator type (e.g., "SMA", "EMA", "RSI").
	Name() string

	// Update feeds the next close price and recalculates.
	Update(price float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Reset clears all accumulated state.
	Reset()
}

// Output is one named line of a multi-line indicator.
type Output struct {
	Name  string
	Value float64
	Ready bool
}

// MultiOutput is implemented by indicators that produce several lines per
// update, such as MACD. Outputs must list every line even before Ready.
type MultiOutput interface {
	Indicator
	Outputs() []Output
}
