package indicator

import "stockdash/internal/model"

// MACD calculates Moving Average Convergence Divergence.
// The MACD line is EMA(fast) - EMA(slow); the signal line is an EMA of the
// MACD line that only starts once the MACD line exists; the histogram is
// their difference.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	line      float64
	lineReady bool
}

// NewMACD creates a MACD with the given fast, slow and signal periods
// (typically 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(price float64) {
	m.fast.Update(price)
	m.slow.Update(price)
	if !m.fast.Ready() || !m.slow.Ready() {
		return
	}
	m.line = m.fast.Value() - m.slow.Value()
	m.lineReady = true
	m.signal.Update(m.line)
}

// Value returns the MACD line.
func (m *MACD) Value() float64 { return m.line }

// Ready is true once the signal line exists.
func (m *MACD) Ready() bool { return m.signal.Ready() }

// Outputs returns the MACD line, signal line and histogram.
func (m *MACD) Outputs() []Output {
	sig := m.signal.Value()
	return []Output{
		{Name: model.MACD, Value: m.line, Ready: m.lineReady},
		{Name: model.MACDSignal, Value: sig, Ready: m.signal.Ready()},
		{Name: model.MACDHist, Value: m.line - sig, Ready: m.signal.Ready()},
	}
}

// Reset clears the MACD state for reuse.
func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.line = 0
	m.lineReady = false
}
