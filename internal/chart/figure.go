// Package chart assembles multi-panel price chart specifications that share
// a single time axis.
package chart

import "stockdash/internal/model"

// TraceType is the kind of mark a trace draws.
type TraceType string

const (
	TraceCandlestick TraceType = "candlestick"
	TraceBar         TraceType = "bar"
	TraceLine        TraceType = "line"
)

// Trace is one named data series drawn in a panel.
type Trace struct {
	Type  TraceType
	Name  string
	X     []string // ISO dates, shared by every trace of a figure
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
	Y     model.Series
	Color string
}

// RefLine is a fixed horizontal guide drawn across a panel.
type RefLine struct {
	Y     float64
	Label string
	Color string
}

// Panel is one vertically stacked plot area.
type Panel struct {
	YAxisTitle string
	Height     float64 // relative share of the figure height
	Traces     []Trace
	RefLines   []RefLine
}

// Legend positions the legend relative to the plot area.
type Legend struct {
	Orientation string  // "h" for horizontal
	X           float64 // paper coordinates
	Y           float64
	XAnchor     string
	YAnchor     string
}

// Figure is a composed chart: stacked panels sharing the x axis.
type Figure struct {
	Title           string
	Symbol          string
	Height          int // pixels
	VerticalSpacing float64
	RangeSlider     bool
	Legend          Legend
	Panels          []Panel
}

// Panel returns the panel whose y-axis title matches, or nil.
func (f *Figure) Panel(yAxisTitle string) *Panel {
	for i := range f.Panels {
		if f.Panels[i].YAxisTitle == yAxisTitle {
			return &f.Panels[i]
		}
	}
	return nil
}

// Trace returns the named trace of the panel, or nil.
func (p *Panel) Trace(name string) *Trace {
	for i := range p.Traces {
		if p.Traces[i].Name == name {
			return &p.Traces[i]
		}
	}
	return nil
}
