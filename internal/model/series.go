package model

import (
	"math"
	"strconv"
)

// Series is a numeric column aligned with a PriceSeries. Positions without
// enough history hold NaN and encode as JSON null.
type Series []float64

// NewSeries returns a series of length n with every position undefined.
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// Defined reports whether position i holds a value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// At returns the value at i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if !s.Defined(i) {
		return 0, false
	}
	return s[i], true
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i := range s {
		if s.Defined(i) {
			return i
		}
	}
	return -1
}

func (s Series) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(s)*8+2)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'f', -1, 64)
	}
	buf = append(buf, ']')
	return buf, nil
}

// Indicator column names.
const (
	SMA20      = "SMA_20"
	SMA50      = "SMA_50"
	EMA20      = "EMA_20"
	RSI        = "RSI"
	MACD       = "MACD"
	MACDSignal = "MACD_Signal"
	MACDHist   = "MACD_Hist"
)

// IndicatorNames is the fixed output order of the indicator set.
var IndicatorNames = []string{SMA20, SMA50, EMA20, RSI, MACD, MACDSignal, MACDHist}

// IndicatorSet maps an indicator name to its aligned series.
type IndicatorSet map[string]Series

// Has reports whether the set carries the named column.
func (s IndicatorSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the present column names in canonical order.
func (s IndicatorSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, n := range IndicatorNames {
		if s.Has(n) {
			names = append(names, n)
		}
	}
	return names
}
