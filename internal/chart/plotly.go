package chart

import (
	"encoding/json"
	"math"
	"strconv"
)

// plotlyTrace is the Plotly.js wire form of a trace.
type plotlyTrace struct {
	Type   string         `json:"type"`
	Mode   string         `json:"mode,omitempty"`
	Name   string         `json:"name"`
	X      []string       `json:"x"`
	Y      any            `json:"y,omitempty"`
	Open   []float64      `json:"open,omitempty"`
	High   []float64      `json:"high,omitempty"`
	Low    []float64      `json:"low,omitempty"`
	Close  []float64      `json:"close,omitempty"`
	XAxis  string         `json:"xaxis"`
	YAxis  string         `json:"yaxis"`
	Line   map[string]any `json:"line,omitempty"`
	Marker map[string]any `json:"marker,omitempty"`
}

// MarshalJSON encodes the figure as a Plotly.js document
// ({"data": [...], "layout": {...}}). Panels become stacked y axes over a
// single shared x axis; reference lines become layout shapes.
func (f Figure) MarshalJSON() ([]byte, error) {
	domains := f.domains()
	data := make([]plotlyTrace, 0, 8)
	layout := map[string]any{
		"title":      map[string]any{"text": f.Title},
		"height":     f.Height,
		"showlegend": true,
		"legend": map[string]any{
			"orientation": f.Legend.Orientation,
			"x":           f.Legend.X,
			"y":           f.Legend.Y,
			"xanchor":     f.Legend.XAnchor,
			"yanchor":     f.Legend.YAnchor,
		},
	}

	var shapes []map[string]any
	for i, p := range f.Panels {
		ref := axisRef(i)
		layout[axisKey(i)] = map[string]any{
			"title":  map[string]any{"text": p.YAxisTitle},
			"domain": domains[i],
			"anchor": "x",
		}
		for _, t := range p.Traces {
			data = append(data, plotlyOf(t, ref))
		}
		for _, rl := range p.RefLines {
			shapes = append(shapes, map[string]any{
				"type": "line",
				"xref": "paper",
				"x0":   0,
				"x1":   1,
				"yref": ref,
				"y0":   rl.Y,
				"y1":   rl.Y,
				"name": rl.Label,
				"line": map[string]any{"color": rl.Color, "dash": "dash"},
			})
		}
	}

	bottom := "y"
	if len(f.Panels) > 0 {
		bottom = axisRef(len(f.Panels) - 1)
	}
	layout["xaxis"] = map[string]any{
		"anchor":      bottom,
		"domain":      [2]float64{0, 1},
		"type":        "category",
		"rangeslider": map[string]any{"visible": f.RangeSlider},
	}
	if len(shapes) > 0 {
		layout["shapes"] = shapes
	}

	return json.Marshal(map[string]any{"data": data, "layout": layout})
}

func plotlyOf(t Trace, yref string) plotlyTrace {
	pt := plotlyTrace{Name: t.Name, X: t.X, XAxis: "x", YAxis: yref}
	switch t.Type {
	case TraceCandlestick:
		pt.Type = "candlestick"
		pt.Open, pt.High, pt.Low, pt.Close = t.Open, t.High, t.Low, t.Close
	case TraceBar:
		pt.Type = "bar"
		pt.Y = t.Y
		if t.Color != "" {
			pt.Marker = map[string]any{"color": t.Color}
		}
	default:
		pt.Type = "scatter"
		pt.Mode = "lines"
		pt.Y = t.Y
		if t.Color != "" {
			pt.Line = map[string]any{"color": t.Color}
		}
	}
	return pt
}

// domains splits [0,1] top-down among panels by relative height, leaving
// VerticalSpacing between neighbours.
func (f Figure) domains() [][2]float64 {
	n := len(f.Panels)
	out := make([][2]float64, n)
	if n == 0 {
		return out
	}
	total := 0.0
	for _, p := range f.Panels {
		total += p.Height
	}
	if total <= 0 {
		total = float64(n)
	}
	avail := 1 - f.VerticalSpacing*float64(n-1)
	top := 1.0
	for i, p := range f.Panels {
		h := p.Height
		if h <= 0 {
			h = 1
		}
		h = h / total * avail
		bottom := top - h
		if i == n-1 {
			bottom = 0
		}
		out[i] = [2]float64{round4(bottom), round4(top)}
		top = bottom - f.VerticalSpacing
	}
	return out
}

func axisKey(i int) string {
	if i == 0 {
		return "yaxis"
	}
	return "yaxis" + strconv.Itoa(i+1)
}

func axisRef(i int) string {
	if i == 0 {
		return "y"
	}
	return "y" + strconv.Itoa(i+1)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
