package model

import "time"

// DateLayout is the ISO date format used for bar labels and exports.
const DateLayout = "2006-01-02"

// Bar represents one daily OHLCV record.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Date returns the bar's date as YYYY-MM-DD.
func (b *Bar) Date() string {
	return b.Time.Format(DateLayout)
}

// PriceSeries is an ordered run of bars for a single symbol.
// Timestamps are unique and strictly increasing.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Last() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates returns the bar dates formatted as YYYY-MM-DD.
func (s *PriceSeries) Dates() []string {
	dates := make([]string, s.Len())
	for i := range s.Bars {
		dates[i] = s.Bars[i].Date()
	}
	return dates
}
