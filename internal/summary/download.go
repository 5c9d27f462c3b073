package summary

import "stockdash/internal/model"

// DownloadRow is one line of the exported history table.
type DownloadRow struct {
	Date   string  `json:"date" parquet:"date"`
	Open   float64 `json:"open" parquet:"open"`
	High   float64 `json:"high" parquet:"high"`
	Low    float64 `json:"low" parquet:"low"`
	Close  float64 `json:"close" parquet:"close"`
	Volume int64   `json:"volume" parquet:"volume"`
}

// PrepareDownload copies the cleaned series into export rows with prices
// rounded to two decimals and dates as YYYY-MM-DD.
func PrepareDownload(series *model.PriceSeries) []DownloadRow {
	rows := make([]DownloadRow, series.Len())
	for i, b := range series.Bars {
		rows[i] = DownloadRow{
			Date:   b.Date(),
			Open:   round(b.Open, 2),
			High:   round(b.High, 2),
			Low:    round(b.Low, 2),
			Close:  round(b.Close, 2),
			Volume: b.Volume,
		}
	}
	return rows
}
