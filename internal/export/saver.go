// Package export writes the dashboard history table in downloadable formats.
package export

import (
	"io"
	"strings"

	"stockdash/internal/summary"
)

// Saver writes history rows in one file format.
type Saver interface {
	Save(w io.Writer, rows []summary.DownloadRow) error
	Extension() string
	ContentType() string
}

// NewSaver creates an implementation by format (csv, json, parquet).
// Returns nil if the format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// Formats lists the supported export formats.
var Formats = []string{"csv", "json", "parquet"}

// FileName returns the download name for a symbol's history.
func FileName(symbol string, s Saver) string {
	return symbol + "_historical_data." + s.Extension()
}
