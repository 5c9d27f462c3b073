// Package datasource fetches daily price history and company metadata.
package datasource

import (
	"context"

	"stockdash/internal/model"
)

// Operation names used in FetchError.Op and in metrics labels.
const (
	OpHistory = "history"
	OpProfile = "profile"
)

// Fetcher is the external market data collaborator.
type Fetcher interface {
	// FetchHistory returns daily OHLCV rows for period together with the
	// partial company profile available alongside the history.
	FetchHistory(ctx context.Context, symbol string, period model.Period) (*model.Frame, *model.CompanyInfo, error)
	// FetchProfile returns company metadata and key statistics.
	FetchProfile(ctx context.Context, symbol string) (*model.CompanyInfo, error)
}
