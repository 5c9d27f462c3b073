package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"stockdash/internal/summary"
)

// CSVHeader is the header line of CSV exports.
var CSVHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// CSVSaver writes rows as CSV with a Date,Open,High,Low,Close,Volume header.
type CSVSaver struct{}

func (CSVSaver) Extension() string   { return "csv" }
func (CSVSaver) ContentType() string { return "text/csv" }

func (CSVSaver) Save(w io.Writer, rows []summary.DownloadRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Date,
			floatStr(r.Open),
			floatStr(r.High),
			floatStr(r.Low),
			floatStr(r.Close),
			strconv.FormatInt(r.Volume, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONSaver writes rows as a JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string   { return "json" }
func (JSONSaver) ContentType() string { return "application/json" }

func (JSONSaver) Save(w io.Writer, rows []summary.DownloadRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// ParquetSaver writes rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string   { return "parquet" }
func (ParquetSaver) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetSaver) Save(w io.Writer, rows []summary.DownloadRow) error {
	return parquet.Write(w, rows)
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
