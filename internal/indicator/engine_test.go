package indicator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"stockdash/internal/model"
)

func makeSeries(closes []float64) *model.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return &model.PriceSeries{Symbol: "TEST", Bars: bars}
}

func wavyCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3) + 0.3*float64(i)
	}
	return closes
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := 50.0
	for i := range closes {
		price += r.NormFloat64()
		if price < 1 {
			price = 1
		}
		closes[i] = price
	}
	return closes
}

func TestEngine_SMAWindows(t *testing.T) {
	closes := wavyCloses(60)
	set := AddTechnicalIndicators(makeSeries(closes)).Indicators

	check := func(name string, period int) {
		col := set[name]
		if len(col) != len(closes) {
			t.Fatalf("%s: length %d, want %d", name, len(col), len(closes))
		}
		for i := range col {
			if i < period-1 {
				if col.Defined(i) {
					t.Errorf("%s[%d]: expected undefined", name, i)
				}
				continue
			}
			sum := 0.0
			for _, c := range closes[i-period+1 : i+1] {
				sum += c
			}
			assertClose(t, name, col[i], sum/float64(period), 1e-9)
		}
	}
	check(model.SMA20, 20)
	check(model.SMA50, 50)
}

func TestEngine_RSIBounded(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		set := NewEngine(DefaultConfigs()).Compute(randomWalk(200, seed))
		rsi := set[model.RSI]
		if rsi.FirstDefined() != 14 {
			t.Errorf("seed %d: first RSI at %d, want 14", seed, rsi.FirstDefined())
		}
		for i, v := range rsi {
			if !rsi.Defined(i) {
				continue
			}
			if v < 0 || v > 100 {
				t.Fatalf("seed %d: RSI[%d]=%f out of [0,100]", seed, i, v)
			}
		}
	}
}

func TestEngine_MACDHistogramIdentity(t *testing.T) {
	set := NewEngine(DefaultConfigs()).Compute(randomWalk(120, 42))
	macd, sig, hist := set[model.MACD], set[model.MACDSignal], set[model.MACDHist]

	if macd.FirstDefined() != 25 {
		t.Errorf("first MACD at %d, want 25", macd.FirstDefined())
	}
	if sig.FirstDefined() != 33 {
		t.Errorf("first signal at %d, want 33", sig.FirstDefined())
	}
	for i := range hist {
		if macd.Defined(i) && sig.Defined(i) {
			assertClose(t, "hist", hist[i], macd[i]-sig[i], 1e-12)
		} else if hist.Defined(i) {
			t.Errorf("hist[%d] defined without both lines", i)
		}
	}
}

func TestEngine_ShortInput(t *testing.T) {
	set := AddTechnicalIndicators(makeSeries(wavyCloses(10))).Indicators

	for _, name := range model.IndicatorNames {
		col, ok := set[name]
		if !ok {
			t.Fatalf("missing column %s", name)
		}
		if len(col) != 10 {
			t.Errorf("%s: length %d, want 10", name, len(col))
		}
		if col.FirstDefined() != -1 {
			t.Errorf("%s: expected no defined values on 10 bars", name)
		}
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	set := NewEngine(DefaultConfigs()).Compute(nil)
	if got := set.Names(); len(got) != len(model.IndicatorNames) {
		t.Errorf("expected all columns on empty input, got %v", got)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	series := makeSeries(randomWalk(80, 7))
	before := series.Closes()

	a := AddTechnicalIndicators(series).Indicators
	b := AddTechnicalIndicators(series).Indicators

	for _, name := range model.IndicatorNames {
		for i := range a[name] {
			x, y := a[name][i], b[name][i]
			if math.IsNaN(x) != math.IsNaN(y) || (!math.IsNaN(x) && x != y) {
				t.Fatalf("%s[%d]: run 1 %v, run 2 %v", name, i, x, y)
			}
		}
	}
	for i, c := range series.Closes() {
		if c != before[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}

func TestEngine_ColumnNames(t *testing.T) {
	engine := NewEngine([]IndicatorConfig{
		{Type: "SMA", Period: 5},
		{Type: "EMA", Period: 9},
		{Type: "RSI", Period: 7},
	})
	set := engine.Compute(wavyCloses(10))
	for _, name := range []string{"SMA_5", "EMA_9", "RSI_7"} {
		if !set.Has(name) {
			t.Errorf("missing column %s", name)
		}
	}
}
