package model

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Required column names of a price frame.
const (
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
)

// RequiredColumns lists the columns every price frame must carry.
var RequiredColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// Frame is a raw row-indexed table as handed over by a data source.
// Cells are loosely typed: numbers, numeric strings, nil or junk.
type Frame struct {
	Index   []time.Time      `json:"index"`
	Columns map[string][]any `json:"columns"`
}

// NewFrame creates an empty frame over the given index.
func NewFrame(index []time.Time) *Frame {
	return &Frame{
		Index:   index,
		Columns: make(map[string][]any, len(RequiredColumns)),
	}
}

// Set stores a column, replacing any previous one with the same name.
func (f *Frame) Set(name string, cells []any) {
	if f.Columns == nil {
		f.Columns = make(map[string][]any)
	}
	f.Columns[name] = cells
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

// Missing returns the names not present as columns, in argument order.
func (f *Frame) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := f.Columns[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Clean validates the required columns, coerces every cell to a number and
// drops rows holding any value that could not be coerced, a non-positive
// price or a volume outside the int64 range. Surviving rows are ordered by
// time; a repeated timestamp keeps its last row.
func (f *Frame) Clean(symbol string) (*PriceSeries, error) {
	if f == nil {
		return nil, &ValidationError{Missing: RequiredColumns}
	}
	if missing := f.Missing(RequiredColumns...); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	bars := make([]Bar, 0, len(f.Index))
	for i, ts := range f.Index {
		var vals [5]float64
		ok := true
		for c, name := range RequiredColumns {
			v, good := ToFloat(cell(f.Columns[name], i))
			if !good {
				ok = false
				break
			}
			vals[c] = v
		}
		if !ok || !validRow(vals) {
			continue
		}
		bars = append(bars, Bar{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: int64(math.Round(vals[4])),
		})
	}

	if len(bars) == 0 {
		return nil, &DataError{Reason: "no rows left after dropping invalid values"}
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}

	return &PriceSeries{Symbol: symbol, Bars: out}, nil
}

// maxVolume is the first float64 above the int64 range.
const maxVolume = float64(1 << 63)

func validRow(vals [5]float64) bool {
	for _, price := range vals[:4] {
		if price <= 0 {
			return false
		}
	}
	return vals[4] >= 0 && vals[4] < maxVolume
}

func cell(col []any, i int) any {
	if i < len(col) {
		return col[i]
	}
	return nil
}

// ToFloat coerces a loosely typed cell to a finite float64.
// ok is false for nil, NaN, infinities and anything non-numeric.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
