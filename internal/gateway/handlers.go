package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"stockdash/internal/chart"
	"stockdash/internal/dashboard"
	"stockdash/internal/logger"
	"stockdash/internal/model"
)

// Renderer is the dashboard service as seen by the gateway.
type Renderer interface {
	Render(ctx context.Context, req dashboard.Request) (*dashboard.Page, error)
	Chart(ctx context.Context, req dashboard.Request) (*chart.Figure, error)
	Summary(ctx context.Context, symbol, period string) (*dashboard.SummaryView, error)
	Export(ctx context.Context, symbol, period, format string) (*dashboard.Download, error)
}

// StatusFor maps a render error to an HTTP status code.
func StatusFor(err error) int {
	var (
		ve *model.ValidationError
		de *model.DataError
		fe *model.FetchError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &fe):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[dashboard] response encode error: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	attrs := append(logger.LogWithTrace(r.Context()), "path", r.URL.Path, "status", status, "error", err)
	if status >= 500 {
		slog.Error("request failed", attrs...)
	} else {
		slog.Info("request rejected", attrs...)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Status: status})
}

// renderRequest reads symbol, period and indicators from the query string.
func (s *Server) renderRequest(r *http.Request) (dashboard.Request, error) {
	q := r.URL.Query()
	req := dashboard.Request{
		Symbol:     q.Get("symbol"),
		Period:     q.Get("period"),
		Indicators: s.cfg.IndicatorsDefault,
	}
	if v := q.Get("indicators"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, &model.ValidationError{Reason: fmt.Sprintf("indicators must be true or false, got %q", v)}
		}
		req.Indicators = b
	}
	return req, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := s.renderRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r, s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	page, err := s.svc.Render(ctx, req)
	s.latency.Record(time.Since(start))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := s.renderRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r, s.cfg.RequestTimeout)
	defer cancel()

	fig, err := s.svc.Chart(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, s.cfg.RequestTimeout)
	defer cancel()

	q := r.URL.Query()
	view, err := s.svc.Summary(ctx, q.Get("symbol"), q.Get("period"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, s.cfg.RequestTimeout)
	defer cancel()

	q := r.URL.Query()
	dl, err := s.svc.Export(ctx, q.Get("symbol"), q.Get("period"), q.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Data)
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	out := make([]PeriodInfo, len(model.Periods))
	for i, p := range model.Periods {
		out[i] = PeriodInfo{Value: p, Label: p.Label(), Default: p == s.cfg.DefaultPeriod}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CollectStats(s.started, s.latency, s.hub.ClientCount()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[dashboard] ws upgrade error: %v", err)
		return
	}
	s.hub.HandleWSRequest(conn, logger.TraceID(r.Context()))
}

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range origins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}
