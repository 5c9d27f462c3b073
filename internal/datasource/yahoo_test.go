package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockdash/internal/model"
)

const chartJSON = `{"chart":{"result":[{
	"meta":{"symbol":"AAPL","longName":"Apple Inc.","fiftyTwoWeekHigh":199.62,"fiftyTwoWeekLow":164.08,"regularMarketVolume":52164500},
	"timestamp":[1704205800,1704292200,1704378600],
	"indicators":{"quote":[{
		"open":[187.15,184.22,null],
		"high":[188.44,185.88,183.09],
		"low":[183.89,183.43,180.88],
		"close":[185.64,184.25,181.91],
		"volume":[82488700,58414500,71983600]
	}]}
}],"error":null}}`

const summaryJSON = `{"quoteSummary":{"result":[{
	"price":{"longName":"Apple Inc.","marketCap":{"raw":2.87e12,"fmt":"2.87T"}},
	"summaryDetail":{"trailingPE":{"raw":29.6,"fmt":"29.60"},"fiftyTwoWeekHigh":{"raw":199.62},"fiftyTwoWeekLow":{"raw":164.08},"volume":{"raw":52164500}},
	"assetProfile":{"sector":"Technology","industry":"Consumer Electronics"}
}],"error":null}}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYahooFetcher(YahooConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, UserAgent: "test-agent"})
}

func TestYahoo_FetchHistory(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.UserAgent()
		w.Write([]byte(chartJSON))
	})

	frame, info, err := f.FetchHistory(context.Background(), "AAPL", model.Period6Months)
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotQuery, "range=6mo") || !strings.Contains(gotQuery, "interval=1d") {
		t.Errorf("query = %s", gotQuery)
	}
	if gotUA != "test-agent" {
		t.Errorf("user agent = %s", gotUA)
	}

	if frame.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", frame.Len())
	}
	if missing := frame.Missing(model.RequiredColumns...); len(missing) > 0 {
		t.Fatalf("missing columns %v", missing)
	}

	series, err := frame.Clean("AAPL")
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if series.Len() != 2 {
		t.Errorf("row with null open should be dropped, got %d bars", series.Len())
	}

	if name, ok := info.CompanyName.Get(); !ok || name != "Apple Inc." {
		t.Errorf("company name = %v", info.CompanyName)
	}
	if v, ok := info.Volume.Get(); !ok || v != 52164500 {
		t.Errorf("volume = %v", info.Volume)
	}
	if info.Sector.Valid || info.MarketCap.Valid {
		t.Error("chart meta does not carry sector or market cap")
	}
}

func TestYahoo_FetchHistory_UnknownSymbol(t *testing.T) {
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, _, err := f.FetchHistory(context.Background(), "ZZZZ", model.DefaultPeriod)
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Op != OpHistory || fe.Symbol != "ZZZZ" {
		t.Errorf("unexpected FetchError %+v", fe)
	}
	if !strings.Contains(err.Error(), "delisted") {
		t.Errorf("error should carry api description: %v", err)
	}
	if !IsNotFound(err) {
		t.Errorf("unknown symbol should be reported as not found: %v", err)
	}
}

// 2024-01-14T21:00:00Z is the Monday 2024-01-15 session open in Auckland.
const nzChartJSON = `{"chart":{"result":[{
	"meta":{"symbol":"AIR.NZ","gmtoffset":46800,"exchangeTimezoneName":%q},
	"timestamp":[1705266000],
	"indicators":{"quote":[{"open":[0.61],"high":[0.62],"low":[0.6],"close":[0.615],"volume":[1250000]}]}
}],"error":null}}`

func TestYahoo_FetchHistory_ExchangeLocalDates(t *testing.T) {
	for _, zone := range []string{"Pacific/Auckland", "Not/AZone"} {
		f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, nzChartJSON, zone)
		})

		frame, _, err := f.FetchHistory(context.Background(), "AIR.NZ", model.Period1Month)
		if err != nil {
			t.Fatalf("%s: FetchHistory: %v", zone, err)
		}
		series, err := frame.Clean("AIR.NZ")
		if err != nil {
			t.Fatalf("%s: Clean: %v", zone, err)
		}
		if got := series.Bars[0].Date(); got != "2024-01-15" {
			t.Errorf("%s: bar date = %s, want exchange-local 2024-01-15", zone, got)
		}
	}
}

func TestExchangeLocation_DefaultsToUTC(t *testing.T) {
	if loc := exchangeLocation("", 0); loc != time.UTC {
		t.Errorf("location = %v", loc)
	}
	ts := time.Unix(1705266000, 0).In(exchangeLocation("", -18000))
	if ts.Format(model.DateLayout) != "2024-01-14" {
		t.Errorf("fixed offset date = %s", ts.Format(model.DateLayout))
	}
}

func TestYahoo_FetchHistory_EmptyResult(t *testing.T) {
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	_, _, err := f.FetchHistory(context.Background(), "AAPL", model.DefaultPeriod)
	if !IsNotFound(err) {
		t.Fatalf("expected empty-result FetchError, got %v", err)
	}
}

func TestYahoo_ServerError(t *testing.T) {
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := f.FetchProfile(context.Background(), "AAPL")
	var fe *model.FetchError
	if !errors.As(err, &fe) || fe.Op != OpProfile {
		t.Fatalf("expected profile FetchError, got %v", err)
	}
	if IsNotFound(err) {
		t.Error("server error is not a not-found")
	}
}

func TestYahoo_FetchProfile(t *testing.T) {
	var gotQuery string
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("modules")
		w.Write([]byte(summaryJSON))
	})

	info, err := f.FetchProfile(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if gotQuery != "price,summaryDetail,assetProfile" {
		t.Errorf("modules = %s", gotQuery)
	}
	if s, _ := info.Sector.Get(); s != "Technology" {
		t.Errorf("sector = %v", info.Sector)
	}
	if mc, _ := info.MarketCap.Get(); mc != 2.87e12 {
		t.Errorf("market cap = %v", info.MarketCap)
	}
	if pe, _ := info.PERatio.Get(); pe != 29.6 {
		t.Errorf("pe = %v", info.PERatio)
	}
	if !info.High52.Valid || !info.Low52.Valid || !info.Volume.Valid {
		t.Errorf("expected 52w range and volume, got %+v", info)
	}
}

func TestYahoo_FetchProfile_MissingFields(t *testing.T) {
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"price":{"shortName":"Fund X"}}],"error":null}}`))
	})

	info, err := f.FetchProfile(context.Background(), "FX")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if name, _ := info.CompanyName.Get(); name != "Fund X" {
		t.Errorf("short name fallback = %v", info.CompanyName)
	}
	if info.Sector.Valid || info.PERatio.Valid || info.MarketCap.Valid {
		t.Errorf("absent fields must be unavailable, got %+v", info)
	}
}

func TestYahoo_ContextCancelled(t *testing.T) {
	f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := f.FetchHistory(ctx, "AAPL", model.DefaultPeriod); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}
