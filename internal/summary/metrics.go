package summary

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"stockdash/internal/model"
)

// Unavailable is what the overview shows for a metric the source lacks.
const Unavailable = "N/A"

// Slots is the number of side-by-side metric columns.
const Slots = 4

// Metric is one labelled, display-ready company figure.
type Metric struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// Metrics flattens info into display pairs in label order.
func Metrics(info *model.CompanyInfo) []Metric {
	if info == nil {
		info = &model.CompanyInfo{}
	}
	return []Metric{
		text(model.LabelCompanyName, info.CompanyName),
		text(model.LabelSector, info.Sector),
		number(model.LabelMarketCap, info.MarketCap, FormatMarketCap),
		number(model.LabelPERatio, info.PERatio, func(v float64) string {
			return strconv.FormatFloat(round(v, 2), 'f', -1, 64)
		}),
		number(model.LabelHigh52, info.High52, formatPrice),
		number(model.LabelLow52, info.Low52, formatPrice),
		number(model.LabelVolume, info.Volume, humanize.Comma),
	}
}

// DisplayMetrics lays the company metrics out two per slot across Slots
// side-by-side columns, in insertion order.
func DisplayMetrics(info *model.CompanyInfo) [Slots][]Metric {
	var grid [Slots][]Metric
	metrics := Metrics(info)
	for i := range grid {
		for j := 0; j < 2; j++ {
			idx := i*2 + j
			if idx < len(metrics) {
				grid[i] = append(grid[i], metrics[idx])
			}
		}
	}
	return grid
}

func text(label string, v model.Optional[string]) Metric {
	s, ok := v.Get()
	if !ok || s == "" {
		return Metric{Label: label, Value: Unavailable}
	}
	return Metric{Label: label, Value: s, Available: true}
}

func number[T int64 | float64](label string, v model.Optional[T], format func(T) string) Metric {
	n, ok := v.Get()
	if !ok {
		return Metric{Label: label, Value: Unavailable}
	}
	return Metric{Label: label, Value: format(n), Available: true}
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
