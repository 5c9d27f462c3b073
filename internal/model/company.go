package model

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that the data source may not provide.
// The zero value is unavailable.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some wraps an available value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// Get returns the value and whether it is available.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Company metric display labels, in display order.
const (
	LabelCompanyName = "Company Name"
	LabelSector      = "Sector"
	LabelMarketCap   = "Market Cap"
	LabelPERatio     = "P/E Ratio"
	LabelHigh52      = "52 Week High"
	LabelLow52       = "52 Week Low"
	LabelVolume      = "Volume"
)

// CompanyLabels is the fixed display order of company metrics.
var CompanyLabels = []string{
	LabelCompanyName, LabelSector, LabelMarketCap, LabelPERatio,
	LabelHigh52, LabelLow52, LabelVolume,
}

// CompanyInfo carries company metadata and key statistics for one symbol.
type CompanyInfo struct {
	Symbol      string            `json:"symbol"`
	CompanyName Optional[string]  `json:"company_name"`
	Sector      Optional[string]  `json:"sector"`
	MarketCap   Optional[float64] `json:"market_cap"`
	PERatio     Optional[float64] `json:"pe_ratio"`
	High52      Optional[float64] `json:"high_52w"`
	Low52       Optional[float64] `json:"low_52w"`
	Volume      Optional[int64]   `json:"volume"`
}

// Merge fills fields unavailable in c from other. Fields already set win.
func (c *CompanyInfo) Merge(other *CompanyInfo) {
	if other == nil {
		return
	}
	if c.Symbol == "" {
		c.Symbol = other.Symbol
	}
	if !c.CompanyName.Valid {
		c.CompanyName = other.CompanyName
	}
	if !c.Sector.Valid {
		c.Sector = other.Sector
	}
	if !c.MarketCap.Valid {
		c.MarketCap = other.MarketCap
	}
	if !c.PERatio.Valid {
		c.PERatio = other.PERatio
	}
	if !c.High52.Valid {
		c.High52 = other.High52
	}
	if !c.Low52.Valid {
		c.Low52 = other.Low52
	}
	if !c.Volume.Valid {
		c.Volume = other.Volume
	}
}
