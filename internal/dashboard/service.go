// Package dashboard runs one render pass for a symbol: fetch, compute and
// assemble every page section, keeping a failure in one section from
// affecting the others.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockdash/internal/chart"
	"stockdash/internal/datasource"
	"stockdash/internal/export"
	"stockdash/internal/logger"
	"stockdash/internal/metrics"
	"stockdash/internal/model"
	"stockdash/internal/summary"
)

// Service renders dashboard pages from a Fetcher.
type Service struct {
	fetcher       datasource.Fetcher
	metrics       *metrics.Metrics
	defaultPeriod model.Period
	now           func() time.Time
}

// NewService creates a service. m may be nil. An empty defaultPeriod uses
// model.DefaultPeriod.
func NewService(f datasource.Fetcher, m *metrics.Metrics, defaultPeriod model.Period) *Service {
	if defaultPeriod == "" {
		defaultPeriod = model.DefaultPeriod
	}
	m.InitSections(Sections...)
	return &Service{
		fetcher:       f,
		metrics:       m,
		defaultPeriod: defaultPeriod,
		now:           time.Now,
	}
}

// Render runs one render pass. It fails only for an invalid request or a
// failed fetch; section failures are reported on the returned Page.
func (s *Service) Render(ctx context.Context, req Request) (*Page, error) {
	start := time.Now()
	page, err := s.render(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveRender(outcome, time.Since(start))

	attrs := append(logger.LogWithTrace(ctx), "symbol", req.Symbol, "period", req.Period, "took", time.Since(start))
	if err != nil {
		slog.Warn("render failed", append(attrs, "error", err)...)
		return nil, err
	}
	slog.Info("render complete", append(attrs, "failed_sections", len(page.Errors))...)
	return page, nil
}

func (s *Service) render(ctx context.Context, req Request) (*Page, error) {
	symbol, period, err := s.normalize(req.Symbol, req.Period)
	if err != nil {
		return nil, err
	}

	frame, partial, err := s.history(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	info, err := s.fetcher.FetchProfile(ctx, symbol)
	if err != nil {
		return nil, asFetchError(symbol, datasource.OpProfile, err)
	}
	if info == nil {
		return nil, &model.FetchError{Symbol: symbol, Op: datasource.OpProfile}
	}
	company := *info
	company.Merge(partial)
	if company.Symbol == "" {
		company.Symbol = symbol
	}

	page := &Page{
		Symbol:      symbol,
		Period:      period,
		PeriodLabel: period.Label(),
		Company:     &company,
		RenderedAt:  s.now().UTC(),
		TraceID:     logger.TraceID(ctx),
	}

	overview := summary.DisplayMetrics(&company)
	page.Overview = &overview

	fig, err := chart.CreatePriceChart(frame, symbol, chart.Options{
		Indicators:   req.Indicators,
		OnIndicators: s.metrics.ObserveIndicators,
	})
	if err != nil {
		s.fail(ctx, page, SectionChart, err)
	} else {
		page.Chart = fig
	}

	series, cleanErr := frame.Clean(symbol)
	if cleanErr != nil {
		s.fail(ctx, page, SectionSummary, cleanErr)
		s.fail(ctx, page, SectionHistory, cleanErr)
		return page, nil
	}

	if row, err := summary.CreateSummaryTable(series); err != nil {
		s.fail(ctx, page, SectionSummary, err)
	} else {
		page.Summary = &SummaryView{Row: row, Rows: row.Rows()}
	}

	page.History = summary.PrepareDownload(series)
	return page, nil
}

// Chart renders only the price chart.
func (s *Service) Chart(ctx context.Context, req Request) (*chart.Figure, error) {
	symbol, period, err := s.normalize(req.Symbol, req.Period)
	if err != nil {
		return nil, err
	}
	frame, _, err := s.history(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return chart.CreatePriceChart(frame, symbol, chart.Options{
		Indicators:   req.Indicators,
		OnIndicators: s.metrics.ObserveIndicators,
	})
}

// Summary renders only the latest-bar summary.
func (s *Service) Summary(ctx context.Context, symbol, period string) (*SummaryView, error) {
	series, err := s.series(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	row, err := summary.CreateSummaryTable(series)
	if err != nil {
		return nil, fmt.Errorf("summary for %s: %w", series.Symbol, err)
	}
	return &SummaryView{Row: row, Rows: row.Rows()}, nil
}

// Export encodes the history table in format (csv, json or parquet).
func (s *Service) Export(ctx context.Context, symbol, period, format string) (*Download, error) {
	saver := export.NewSaver(format)
	if saver == nil {
		return nil, &model.ValidationError{Reason: fmt.Sprintf("unknown export format %q (want %s)", format, strings.Join(export.Formats, ", "))}
	}
	series, err := s.series(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := saver.Save(&buf, summary.PrepareDownload(series)); err != nil {
		return nil, fmt.Errorf("export %s as %s: %w", series.Symbol, saver.Extension(), err)
	}
	return &Download{
		FileName:    export.FileName(series.Symbol, saver),
		ContentType: saver.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func (s *Service) series(ctx context.Context, symbol, period string) (*model.PriceSeries, error) {
	sym, p, err := s.normalize(symbol, period)
	if err != nil {
		return nil, err
	}
	frame, _, err := s.history(ctx, sym, p)
	if err != nil {
		return nil, err
	}
	series, err := frame.Clean(sym)
	if err != nil {
		return nil, fmt.Errorf("clean history for %s: %w", sym, err)
	}
	return series, nil
}

func (s *Service) normalize(symbol, period string) (string, model.Period, error) {
	sym, err := model.NormalizeSymbol(symbol)
	if err != nil {
		return "", "", err
	}
	if period == "" {
		return sym, s.defaultPeriod, nil
	}
	p, err := model.ParsePeriod(period)
	if err != nil {
		return "", "", err
	}
	return sym, p, nil
}

func (s *Service) history(ctx context.Context, symbol string, period model.Period) (*model.Frame, *model.CompanyInfo, error) {
	frame, info, err := s.fetcher.FetchHistory(ctx, symbol, period)
	if err != nil {
		return nil, nil, asFetchError(symbol, datasource.OpHistory, err)
	}
	if frame == nil || frame.Len() == 0 {
		return nil, nil, &model.FetchError{Symbol: symbol, Op: datasource.OpHistory}
	}
	return frame, info, nil
}

func (s *Service) fail(ctx context.Context, page *Page, section string, err error) {
	page.Errors = append(page.Errors, SectionError{Section: section, Message: err.Error(), Err: err})
	s.metrics.SectionFailed(section)
	slog.Warn("section failed",
		append(logger.LogWithTrace(ctx), "section", section, "symbol", page.Symbol, "error", err)...)
}

func asFetchError(symbol, op string, err error) error {
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &model.FetchError{Symbol: symbol, Op: op, Err: err}
}
