package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockdash/internal/model"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultUserAgent = "Mozilla/5.0"
	DefaultTimeout   = 15 * time.Second

	maxBodyBytes = 10 * 1024 * 1024
)

var profileModules = []string{"price", "summaryDetail", "assetProfile"}

// ErrSymbolNotFound is wrapped by the FetchError returned for a ticker
// Yahoo does not know.
var ErrSymbolNotFound = errors.New("symbol not found")

// YahooConfig configures a YahooFetcher.
type YahooConfig struct {
	BaseURL   string
	Timeout   time.Duration
	ProxyURL  string
	UserAgent string
}

// YahooFetcher implements Fetcher using the public Yahoo Finance API.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
}

// NewYahooFetcher creates a fetcher. Zero config fields take defaults.
func NewYahooFetcher(cfg YahooConfig) *YahooFetcher {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		UserAgent: cfg.UserAgent,
	}
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) err() error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("yahoo api error: %w: %s", ErrSymbolNotFound, e.Description)
	}
	return fmt.Errorf("yahoo api error: %s", e.Description)
}

// yahooChart is the response of the v8 chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string   `json:"symbol"`
				GMTOffset           int      `json:"gmtoffset"`
				ExchangeTimezone    string   `json:"exchangeTimezoneName"`
				LongName            string   `json:"longName"`
				ShortName           string   `json:"shortName"`
				FiftyTwoWeekHigh    *float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow     *float64 `json:"fiftyTwoWeekLow"`
				RegularMarketVolume *float64 `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// yahooRaw is the {"raw": 1.5, "fmt": "1.50"} wrapper used by quoteSummary.
type yahooRaw struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName  string    `json:"longName"`
				ShortName string    `json:"shortName"`
				MarketCap *yahooRaw `json:"marketCap"`
			} `json:"price"`
			SummaryDetail *struct {
				TrailingPE       *yahooRaw `json:"trailingPE"`
				FiftyTwoWeekHigh *yahooRaw `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  *yahooRaw `json:"fiftyTwoWeekLow"`
				Volume           *yahooRaw `json:"volume"`
				MarketCap        *yahooRaw `json:"marketCap"`
			} `json:"summaryDetail"`
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, period model.Period) (*model.Frame, *model.CompanyInfo, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(symbol), url.QueryEscape(string(period)))

	var chart yahooChart
	if err := f.getJSON(ctx, u, &chart); err != nil {
		return nil, nil, &model.FetchError{Symbol: symbol, Op: OpHistory, Err: err}
	}
	if e := chart.Chart.Error; e != nil {
		return nil, nil, &model.FetchError{Symbol: symbol, Op: OpHistory, Err: e.err()}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, &model.FetchError{Symbol: symbol, Op: OpHistory}
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	// Daily bars are stamped at the session open, so dates are taken in
	// the exchange's zone.
	loc := exchangeLocation(result.Meta.ExchangeTimezone, result.Meta.GMTOffset)
	index := make([]time.Time, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		index[i] = time.Unix(ts, 0).In(loc)
	}
	frame := model.NewFrame(index)
	frame.Set(model.ColOpen, quote.Open)
	frame.Set(model.ColHigh, quote.High)
	frame.Set(model.ColLow, quote.Low)
	frame.Set(model.ColClose, quote.Close)
	frame.Set(model.ColVolume, quote.Volume)

	meta := result.Meta
	info := &model.CompanyInfo{Symbol: symbol}
	if name := firstNonEmpty(meta.LongName, meta.ShortName); name != "" {
		info.CompanyName = model.Some(name)
	}
	if meta.FiftyTwoWeekHigh != nil {
		info.High52 = model.Some(*meta.FiftyTwoWeekHigh)
	}
	if meta.FiftyTwoWeekLow != nil {
		info.Low52 = model.Some(*meta.FiftyTwoWeekLow)
	}
	if meta.RegularMarketVolume != nil {
		info.Volume = model.Some(int64(*meta.RegularMarketVolume))
	}

	return frame, info, nil
}

func (f *YahooFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.BaseURL, url.PathEscape(symbol), strings.Join(profileModules, ","))

	var summary yahooSummary
	if err := f.getJSON(ctx, u, &summary); err != nil {
		return nil, &model.FetchError{Symbol: symbol, Op: OpProfile, Err: err}
	}
	if e := summary.QuoteSummary.Error; e != nil {
		return nil, &model.FetchError{Symbol: symbol, Op: OpProfile, Err: e.err()}
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, &model.FetchError{Symbol: symbol, Op: OpProfile}
	}

	res := summary.QuoteSummary.Result[0]
	info := &model.CompanyInfo{Symbol: symbol}
	if p := res.Price; p != nil {
		if name := firstNonEmpty(p.LongName, p.ShortName); name != "" {
			info.CompanyName = model.Some(name)
		}
		info.MarketCap = raw(p.MarketCap)
	}
	if a := res.AssetProfile; a != nil && a.Sector != "" {
		info.Sector = model.Some(a.Sector)
	}
	if d := res.SummaryDetail; d != nil {
		if !info.MarketCap.Valid {
			info.MarketCap = raw(d.MarketCap)
		}
		info.PERatio = raw(d.TrailingPE)
		info.High52 = raw(d.FiftyTwoWeekHigh)
		info.Low52 = raw(d.FiftyTwoWeekLow)
		if v := raw(d.Volume); v.Valid {
			info.Volume = model.Some(int64(v.Value))
		}
	}
	return info, nil
}

func (f *YahooFetcher) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// Yahoo reports unknown symbols as 404 with a regular error envelope.
		if resp.StatusCode == http.StatusNotFound && json.Unmarshal(body, out) == nil {
			return nil
		}
		return fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

// exchangeLocation resolves the exchange zone by name, falling back to
// the fixed offset reported alongside it.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if gmtOffset != 0 {
		if name == "" {
			name = "exchange"
		}
		return time.FixedZone(name, gmtOffset)
	}
	return time.UTC
}

func raw(r *yahooRaw) model.Optional[float64] {
	if r == nil || r.Raw == nil {
		return model.Optional[float64]{}
	}
	return model.Some(*r.Raw)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// IsNotFound reports whether err is a FetchError for an unknown symbol or
// an empty result.
func IsNotFound(err error) bool {
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Err == nil || errors.Is(fe.Err, ErrSymbolNotFound)
}
