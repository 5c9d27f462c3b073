package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"stockdash/internal/summary"
)

var sampleRows = []summary.DownloadRow{
	{Date: "2024-01-02", Open: 185.64, High: 188.44, Low: 183.89, Close: 185.2, Volume: 82488700},
	{Date: "2024-01-03", Open: 184.22, High: 185.88, Low: 183.43, Close: 184.25, Volume: 58414500},
}

func TestNewSaver(t *testing.T) {
	for _, f := range Formats {
		if NewSaver(f) == nil {
			t.Errorf("format %s not supported", f)
		}
	}
	if NewSaver("xlsx") != nil {
		t.Error("expected nil for unknown format")
	}
	if got := FileName("AAPL", NewSaver("csv")); got != "AAPL_historical_data.csv" {
		t.Errorf("file name: got %q", got)
	}
}

func TestCSVSaver(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVSaver{}).Save(&buf, sampleRows); err != nil {
		t.Fatalf("save: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Date,Open,High,Low,Close,Volume" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "2024-01-02,185.64,188.44,183.89,185.20,82488700" {
		t.Errorf("row 1: got %q", lines[1])
	}
}

func TestJSONSaver(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONSaver{}).Save(&buf, sampleRows); err != nil {
		t.Fatalf("save: %v", err)
	}
	var back []summary.DownloadRow
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != 2 || back[1].Close != 184.25 {
		t.Errorf("unexpected rows: %+v", back)
	}
}

func TestParquetSaver(t *testing.T) {
	var buf bytes.Buffer
	if err := (ParquetSaver{}).Save(&buf, sampleRows); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := parquet.Read[summary.DownloadRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(back) != 2 || back[0].Date != "2024-01-02" || back[1].Volume != 58414500 {
		t.Errorf("unexpected rows: %+v", back)
	}
}
