package chart

import (
	"fmt"
	"time"

	"stockdash/internal/indicator"
	"stockdash/internal/model"
)

// Panel axis titles.
const (
	AxisPrice  = "Price"
	AxisVolume = "Volume"
	AxisRSI    = "RSI"
	AxisMACD   = "MACD"
)

// RSI guide levels.
const (
	Overbought = 70.0
	Oversold   = 30.0
)

const (
	basicHeight    = 800
	extendedHeight = 1000
	panelSpacing   = 0.03
)

var overlayColors = map[string]string{
	model.SMA20: "orange",
	model.SMA50: "blue",
	model.EMA20: "purple",
}

// Options selects the chart variant.
type Options struct {
	// Indicators adds moving-average overlays plus the RSI and MACD panels.
	Indicators bool
	// OnIndicators, when set, receives the indicator computation time.
	OnIndicators func(time.Duration)
}

// CreatePriceChart validates and cleans a raw frame and lays out the price
// chart for symbol. It returns a *model.ValidationError when a required
// column is missing and a *model.DataError when no row survives cleaning.
func CreatePriceChart(frame *model.Frame, symbol string, opts Options) (*Figure, error) {
	series, err := frame.Clean(symbol)
	if err != nil {
		return nil, fmt.Errorf("create price chart for %s: %w", symbol, err)
	}
	return Build(series, opts), nil
}

// Build lays out an already cleaned series.
func Build(series *model.PriceSeries, opts Options) *Figure {
	x := series.Dates()
	fig := &Figure{
		Title:           series.Symbol + " Stock Price",
		Symbol:          series.Symbol,
		Height:          basicHeight,
		VerticalSpacing: panelSpacing,
		Legend: Legend{
			Orientation: "h",
			X:           1,
			Y:           1.02,
			XAnchor:     "right",
			YAnchor:     "bottom",
		},
	}

	price := Panel{YAxisTitle: AxisPrice, Height: 0.7, Traces: []Trace{candles(series, x)}}
	volume := Panel{YAxisTitle: AxisVolume, Height: 0.3, Traces: []Trace{volumeBars(series, x)}}

	if !opts.Indicators {
		fig.Panels = []Panel{price, volume}
		return fig
	}

	start := time.Now()
	set := indicator.AddTechnicalIndicators(series).Indicators
	if opts.OnIndicators != nil {
		opts.OnIndicators(time.Since(start))
	}
	for _, name := range []string{model.SMA20, model.SMA50, model.EMA20} {
		if col, ok := set[name]; ok {
			price.Traces = append(price.Traces, line(name, x, col, overlayColors[name]))
		}
	}

	price.Height, volume.Height = 0.5, 0.15
	rsi := Panel{
		YAxisTitle: AxisRSI,
		Height:     0.15,
		Traces:     []Trace{line(model.RSI, x, set[model.RSI], "")},
		RefLines: []RefLine{
			{Y: Overbought, Label: "Overbought", Color: "red"},
			{Y: Oversold, Label: "Oversold", Color: "green"},
		},
	}
	macd := Panel{
		YAxisTitle: AxisMACD,
		Height:     0.2,
		Traces: []Trace{
			line(model.MACD, x, set[model.MACD], "blue"),
			line(model.MACDSignal, x, set[model.MACDSignal], "orange"),
			{Type: TraceBar, Name: model.MACDHist, X: x, Y: set[model.MACDHist]},
		},
	}

	fig.Height = extendedHeight
	fig.Panels = []Panel{price, volume, rsi, macd}
	return fig
}

func candles(series *model.PriceSeries, x []string) Trace {
	n := series.Len()
	t := Trace{
		Type:  TraceCandlestick,
		Name:  "OHLC",
		X:     x,
		Open:  make([]float64, n),
		High:  make([]float64, n),
		Low:   make([]float64, n),
		Close: make([]float64, n),
	}
	for i, b := range series.Bars {
		t.Open[i], t.High[i], t.Low[i], t.Close[i] = b.Open, b.High, b.Low, b.Close
	}
	return t
}

func volumeBars(series *model.PriceSeries, x []string) Trace {
	y := make(model.Series, series.Len())
	for i, b := range series.Bars {
		y[i] = float64(b.Volume)
	}
	return Trace{Type: TraceBar, Name: "Volume", X: x, Y: y}
}

func line(name string, x []string, y model.Series, color string) Trace {
	return Trace{Type: TraceLine, Name: name, X: x, Y: y, Color: color}
}
