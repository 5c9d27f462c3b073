// Package summary reduces a price series and company metadata to the
// display-ready pieces of the dashboard: the latest-bar summary, the company
// metric grid and the downloadable history table.
package summary

import (
	"fmt"
	"math"

	"stockdash/internal/model"
)

// SummaryRow describes the most recent bar of a series.
type SummaryRow struct {
	Date          string  `json:"date"`
	Current       float64 `json:"current"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        int64   `json:"volume"`
	ChangePercent float64 `json:"change_pct"`
}

// Cell is one metric/value line of the transposed summary table.
type Cell struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// CreateSummaryTable summarizes the last bar of series. Change % is the
// intraday move of that bar: (Close - Open) / Open * 100.
func CreateSummaryTable(series *model.PriceSeries) (SummaryRow, error) {
	last, ok := series.Last()
	if !ok {
		return SummaryRow{}, &model.DataError{Reason: "series is empty"}
	}
	if last.Open == 0 {
		return SummaryRow{}, &model.DataError{Reason: fmt.Sprintf("open is zero on %s", last.Date())}
	}
	return SummaryRow{
		Date:          last.Date(),
		Current:       last.Close,
		Open:          last.Open,
		High:          last.High,
		Low:           last.Low,
		Volume:        last.Volume,
		ChangePercent: (last.Close - last.Open) / last.Open * 100,
	}, nil
}

// Rows returns the summary transposed into one metric per line, labelled
// column-wise by Date.
func (r SummaryRow) Rows() []Cell {
	return []Cell{
		{Metric: "Current", Value: r.Current},
		{Metric: "Open", Value: r.Open},
		{Metric: "High", Value: r.High},
		{Metric: "Low", Value: r.Low},
		{Metric: "Volume", Value: float64(r.Volume)},
		{Metric: "Change %", Value: round(r.ChangePercent, 2)},
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
