package indicator

import (
	"strconv"

	"stockdash/internal/model"
)

// IndicatorConfig specifies a single indicator to compute.
type IndicatorConfig struct {
	Type   string // "SMA", "EMA", "RSI", "MACD"
	Period int    // window; the fast period for MACD
	Slow   int    // MACD only
	Signal int    // MACD only
	Column string // output column; defaults to Type_Period
}

// column returns the output column name for single-line indicators.
func (c IndicatorConfig) column() string {
	if c.Column != "" {
		return c.Column
	}
	return c.Type + "_" + strconv.Itoa(c.Period)
}

// DefaultConfigs returns the dashboard indicator set:
// SMA_20, SMA_50, EMA_20, RSI(14) and MACD(12,26,9).
func DefaultConfigs() []IndicatorConfig {
	return []IndicatorConfig{
		{Type: "SMA", Period: 20},
		{Type: "SMA", Period: 50},
		{Type: "EMA", Period: 20},
		{Type: "RSI", Period: 14, Column: model.RSI},
		{Type: "MACD", Period: 12, Slow: 26, Signal: 9},
	}
}

// Enriched is a price series with its derived indicator columns.
type Enriched struct {
	Series     *model.PriceSeries `json:"series"`
	Indicators model.IndicatorSet `json:"indicators"`
}

// Engine computes a fixed list of indicators over a close column.
// It holds configuration only; every run builds fresh indicator instances.
type Engine struct {
	configs []IndicatorConfig
}

// NewEngine creates an indicator engine for the given configs.
func NewEngine(configs []IndicatorConfig) *Engine {
	return &Engine{configs: configs}
}

// Compute replays closes through every configured indicator and returns
// series aligned with closes. Positions without enough history are NaN.
func (e *Engine) Compute(closes []float64) model.IndicatorSet {
	n := len(closes)
	inds := e.createIndicators()

	set := make(model.IndicatorSet, len(inds)+2)
	for i, ind := range inds {
		if m, ok := ind.(MultiOutput); ok {
			for _, o := range m.Outputs() {
				set[o.Name] = model.NewSeries(n)
			}
			continue
		}
		set[e.configs[i].column()] = model.NewSeries(n)
	}

	for pos, price := range closes {
		for i, ind := range inds {
			ind.Update(price)
			if m, ok := ind.(MultiOutput); ok {
				for _, o := range m.Outputs() {
					if o.Ready {
						set[o.Name][pos] = o.Value
					}
				}
				continue
			}
			if ind.Ready() {
				set[e.configs[i].column()][pos] = ind.Value()
			}
		}
	}
	return set
}

// Enrich computes indicators over the series closes. The series is not
// modified.
func (e *Engine) Enrich(series *model.PriceSeries) *Enriched {
	return &Enriched{
		Series:     series,
		Indicators: e.Compute(series.Closes()),
	}
}

// AddTechnicalIndicators enriches a series with the default indicator set.
// Short input yields partially undefined columns, never an error.
func AddTechnicalIndicators(series *model.PriceSeries) *Enriched {
	return NewEngine(DefaultConfigs()).Enrich(series)
}

// createIndicators creates fresh indicator instances for the configs.
func (e *Engine) createIndicators() []Indicator {
	inds := make([]Indicator, len(e.configs))
	for i, ic := range e.configs {
		switch ic.Type {
		case "SMA":
			inds[i] = NewSMA(ic.Period)
		case "EMA":
			inds[i] = NewEMA(ic.Period)
		case "RSI":
			inds[i] = NewRSI(ic.Period)
		case "MACD":
			inds[i] = NewMACD(ic.Period, ic.Slow, ic.Signal)
		default:
			inds[i] = NewSMA(ic.Period) // fallback
		}
	}
	return inds
}
